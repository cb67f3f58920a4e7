package embedder

import "fmt"

func errStatus(code int, body []byte) error {
	return fmt.Errorf("embedder error (status %d): %s", code, string(body))
}
