package rum

import (
	"encoding/json"
	"io"
)

func jsonDecode[T any](stream io.Reader, result *T) error {
	data, err := io.ReadAll(stream)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, result)
}
