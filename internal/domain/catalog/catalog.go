package catalog

import "fmt"

var ErrCatalogLoad = fmt.Errorf("message catalog could not be loaded")
var ErrInvalidCatalog = fmt.Errorf("message catalog is empty")
var ErrIndexOutOfRange = fmt.Errorf("message index out of range")

// Catalog is the ordered, immutable list of messages delivered one per day.
// A message is identified only by its position.
type Catalog struct {
	messages []string
}

// New copies messages into a Catalog. At least one message is required.
func New(messages []string) (*Catalog, error) {
	if len(messages) == 0 {
		return nil, fmt.Errorf("%w: no usable messages", ErrCatalogLoad)
	}
	cp := make([]string, len(messages))
	copy(cp, messages)
	return &Catalog{messages: cp}, nil
}

func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.messages)
}

// At returns the message stored at index.
func (c *Catalog) At(index int) (string, error) {
	if c.Len() == 0 {
		return "", ErrInvalidCatalog
	}
	if index < 0 || index >= len(c.messages) {
		return "", fmt.Errorf("%w: %d (catalog has %d messages)", ErrIndexOutOfRange, index, len(c.messages))
	}
	return c.messages[index], nil
}
