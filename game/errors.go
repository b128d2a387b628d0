package game

// Reason is the code of a rejected operation. A rejection never changes
// the match.
type Reason int

const (
	ErrOutOfBounds Reason = iota + 1
	ErrOverlapping
	ErrWrongBoard
	ErrAlreadyAttacked
	ErrAbilityUnavailable
	ErrNotYourPhase
)

func (r Reason) Error() string {
	switch r {
	case ErrOutOfBounds:
		return "ship out of bounds"
	case ErrOverlapping:
		return "ships overlapping"
	case ErrWrongBoard:
		return "wrong board"
	case ErrAlreadyAttacked:
		return "cell already attacked"
	case ErrAbilityUnavailable:
		return "ability unavailable"
	case ErrNotYourPhase:
		return "not allowed in current phase"
	default:
		return "unknown rejection"
	}
}

// Code returns a stable identifier of the reason for clients.
func (r Reason) Code() string {
	switch r {
	case ErrOutOfBounds:
		return "OutOfBounds"
	case ErrOverlapping:
		return "Overlapping"
	case ErrWrongBoard:
		return "WrongBoard"
	case ErrAlreadyAttacked:
		return "AlreadyAttacked"
	case ErrAbilityUnavailable:
		return "AbilityUnavailable"
	case ErrNotYourPhase:
		return "NotYourPhase"
	default:
		return "Unknown"
	}
}

// Message returns the status text shown to the players.
func (r Reason) Message() string {
	switch r {
	case ErrOutOfBounds:
		return "船隻超出邊界，請重新點選！"
	case ErrOverlapping:
		return "船隻不能重疊，請重新點選！"
	case ErrWrongBoard:
		return "請點擊正確的棋盤！"
	case ErrAlreadyAttacked:
		return "這個位置你已經攻擊過了！"
	case ErrAbilityUnavailable:
		return "這個技能目前無法使用！"
	case ErrNotYourPhase:
		return "現在不能這樣做！"
	default:
		return ""
	}
}

// Rejection carries the reason of a rejected operation together with the
// status text for that particular situation.
type Rejection struct {
	Reason  Reason
	Message string
}

func reject(r Reason, msg string) *Rejection {
	if msg == "" {
		msg = r.Message()
	}
	return &Rejection{Reason: r, Message: msg}
}

func (r *Rejection) Error() string {
	return r.Reason.Error()
}

func (r *Rejection) Unwrap() error {
	return r.Reason
}

// StatusMessage returns the text to display for an error returned by a
// match operation.
func StatusMessage(err error) string {
	switch e := err.(type) {
	case nil:
		return ""
	case *Rejection:
		return e.Message
	case Reason:
		return e.Message()
	default:
		return err.Error()
	}
}
