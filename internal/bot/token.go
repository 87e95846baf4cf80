package bot

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"booking-bot/internal/models"
)

// Action enumerates every button the bot can emit. The callback data schema
// is shared with deployed keyboards, so encoding must stay byte-identical:
//
//	spec.<specID>
//	stayCalm.<specID>
//	newOrder.<specID>.<dd>.<MM>.<yyyy>
//	Confirm.<specID>.<dd:MM:yyyy>.<HH:mm>
//	Create.Confirm.<specID>.<dd:MM:yyyy>.<HH:mm>
//	Rate.<recordID>[.<score>]
//	backAcc | backSpecList | NewRecord | History | HistorySpec | Future |
//	WorkChange | Don`t touch
type Action int

const (
	ActionAccount Action = iota // backAcc
	ActionSpecialistList
	ActionBackSpecialistList
	ActionCalendar     // spec
	ActionCalendarStay // stayCalm, blocked-day press
	ActionTimeChoice   // newOrder
	ActionConfirm
	ActionCreate
	ActionRate
	ActionHistory
	ActionHistorySpec
	ActionFuture
	ActionWorkChange
	ActionNoop
)

// Token is the parsed wizard state carried by one button. Which fields are
// meaningful depends on Action; a replayed token is re-validated against
// current data before every transition.
type Token struct {
	Action Action
	SpecID int64
	Date   time.Time // midnight, local
	Clock  int       // minutes since midnight, -1 when absent
	Record int64
	Score  int // 0 when absent
}

const noopData = "Don`t touch"

// ParseToken decodes callback data. Anything that does not match a known
// variant exactly is ErrMalformedToken; the caller answers with the generic
// error and falls back to the account view.
func ParseToken(data string) (Token, error) {
	fields := strings.Split(data, ".")
	t := Token{Clock: -1}

	switch fields[0] {
	case "backAcc", "NewRecord", "backSpecList", "History", "HistorySpec",
		"Future", "WorkChange", noopData:
		if len(fields) != 1 {
			return t, malformed(data)
		}
		switch fields[0] {
		case "backAcc":
			t.Action = ActionAccount
		case "NewRecord":
			t.Action = ActionSpecialistList
		case "backSpecList":
			t.Action = ActionBackSpecialistList
		case "History":
			t.Action = ActionHistory
		case "HistorySpec":
			t.Action = ActionHistorySpec
		case "Future":
			t.Action = ActionFuture
		case "WorkChange":
			t.Action = ActionWorkChange
		default:
			t.Action = ActionNoop
		}

	case "spec", "stayCalm":
		if len(fields) != 2 {
			return t, malformed(data)
		}
		id, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return t, malformed(data)
		}
		t.Action = ActionCalendar
		if fields[0] == "stayCalm" {
			t.Action = ActionCalendarStay
		}
		t.SpecID = id

	case "newOrder":
		if len(fields) != 5 {
			return t, malformed(data)
		}
		id, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return t, malformed(data)
		}
		date, err := parseDate(fields[2], fields[3], fields[4])
		if err != nil {
			return t, malformed(data)
		}
		t.Action = ActionTimeChoice
		t.SpecID = id
		t.Date = date

	case "Confirm":
		if err := parseOrder(fields[1:], &t); err != nil {
			return t, malformed(data)
		}
		t.Action = ActionConfirm

	case "Create":
		if len(fields) < 2 || fields[1] != "Confirm" {
			return t, malformed(data)
		}
		if err := parseOrder(fields[2:], &t); err != nil {
			return t, malformed(data)
		}
		t.Action = ActionCreate

	case "Rate":
		if len(fields) != 2 && len(fields) != 3 {
			return t, malformed(data)
		}
		rec, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return t, malformed(data)
		}
		t.Action = ActionRate
		t.Record = rec
		if len(fields) == 3 {
			score, err := strconv.Atoi(fields[2])
			if err != nil || score < 1 || score > 5 {
				return t, malformed(data)
			}
			t.Score = score
		}

	default:
		return t, malformed(data)
	}
	return t, nil
}

// parseOrder consumes the shared <specID>.<dd:MM:yyyy>.<HH:mm> tail of
// Confirm and Create tokens.
func parseOrder(fields []string, t *Token) error {
	if len(fields) != 3 {
		return models.ErrMalformedToken
	}
	id, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return err
	}
	dmy := strings.Split(fields[1], ":")
	if len(dmy) != 3 {
		return models.ErrMalformedToken
	}
	date, err := parseDate(dmy[0], dmy[1], dmy[2])
	if err != nil {
		return err
	}
	hm := strings.Split(fields[2], ":")
	if len(hm) != 2 {
		return models.ErrMalformedToken
	}
	hour, err := strconv.Atoi(hm[0])
	if err != nil {
		return err
	}
	minute, err := strconv.Atoi(hm[1])
	if err != nil || hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return models.ErrMalformedToken
	}

	t.SpecID = id
	t.Date = date
	t.Clock = hour*60 + minute
	return nil
}

func parseDate(dd, mm, yyyy string) (time.Time, error) {
	day, err := strconv.Atoi(dd)
	if err != nil {
		return time.Time{}, err
	}
	month, err := strconv.Atoi(mm)
	if err != nil {
		return time.Time{}, err
	}
	year, err := strconv.Atoi(yyyy)
	if err != nil {
		return time.Time{}, err
	}
	date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.Local)
	// time.Date normalizes overflow; a round trip catches 31/02 style input.
	if date.Day() != day || int(date.Month()) != month || date.Year() != year {
		return time.Time{}, models.ErrMalformedToken
	}
	return date, nil
}

func malformed(data string) error {
	return fmt.Errorf("%q: %w", data, models.ErrMalformedToken)
}

// Encode renders the token back to wire form.
func (t Token) Encode() string {
	switch t.Action {
	case ActionAccount:
		return "backAcc"
	case ActionSpecialistList:
		return "NewRecord"
	case ActionBackSpecialistList:
		return "backSpecList"
	case ActionHistory:
		return "History"
	case ActionHistorySpec:
		return "HistorySpec"
	case ActionFuture:
		return "Future"
	case ActionWorkChange:
		return "WorkChange"
	case ActionNoop:
		return noopData
	case ActionCalendar:
		return fmt.Sprintf("spec.%d", t.SpecID)
	case ActionCalendarStay:
		return fmt.Sprintf("stayCalm.%d", t.SpecID)
	case ActionTimeChoice:
		return fmt.Sprintf("newOrder.%d.%02d.%02d.%04d",
			t.SpecID, t.Date.Day(), int(t.Date.Month()), t.Date.Year())
	case ActionConfirm:
		return "Confirm." + t.orderTail()
	case ActionCreate:
		return "Create.Confirm." + t.orderTail()
	case ActionRate:
		if t.Score != 0 {
			return fmt.Sprintf("Rate.%d.%d", t.Record, t.Score)
		}
		return fmt.Sprintf("Rate.%d", t.Record)
	}
	return noopData
}

func (t Token) orderTail() string {
	return fmt.Sprintf("%d.%02d:%02d:%04d.%s",
		t.SpecID, t.Date.Day(), int(t.Date.Month()), t.Date.Year(),
		models.ClockString(t.Clock))
}

// When combines the token's date and clock into the scheduled time.
func (t Token) When() time.Time {
	return t.Date.Add(time.Duration(t.Clock) * time.Minute)
}
