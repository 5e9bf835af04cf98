package congressapi

import (
	"bytes"
	"fmt"
	"strconv"
)

// IntString is an int the API serializes sometimes as a number and
// sometimes as a quoted string (bill numbers on list endpoints).
type IntString int

func (n *IntString) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*n = 0
		return nil
	}
	value, err := strconv.Atoi(string(data))
	if err != nil {
		return fmt.Errorf("invalid number %q: %w", string(data), err)
	}
	*n = IntString(value)
	return nil
}

func (n IntString) Int() int {
	return int(n)
}
