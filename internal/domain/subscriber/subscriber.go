package subscriber

import "strconv"

// ID identifies a Telegram chat that receives the daily message.
type ID int64

func (id ID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// ParseID parses an identifier as it is written in persisted storage.
func ParseID(raw string) (ID, error) {
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	return ID(v), nil
}
