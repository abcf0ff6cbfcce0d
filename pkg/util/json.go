package util

import (
	"encoding/json"
	"fmt"
	"os"
)

// PrintPrettyJSON writes v to stdout as indented JSON. A nil slice prints
// as an empty array.
func PrintPrettyJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if string(b) == "null" {
		b = []byte("[]")
	}
	_, err = fmt.Fprintln(os.Stdout, string(b))
	return err
}
