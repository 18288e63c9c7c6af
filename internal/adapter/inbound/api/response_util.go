package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"sync"
)

// Pool both encoders and their underlying buffers so hot paths reuse them.
type pooledEncoder struct {
	buf     *bytes.Buffer
	encoder *json.Encoder
}

func (pe *pooledEncoder) reset() {
	pe.buf.Reset()
}

var encoderPool = sync.Pool{
	New: func() interface{} {
		buf := bytes.NewBuffer(make([]byte, 0, 512))
		return &pooledEncoder{
			buf:     buf,
			encoder: json.NewEncoder(buf),
		}
	},
}

// WriteJSON encodes data as JSON and writes it with the given status code.
// Headers go out only after a successful encode, so an encoding failure
// leaves the response untouched for the caller to handle.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	// Handle status code 0 (default to 200)
	if statusCode == 0 {
		statusCode = http.StatusOK
	}

	// Get pooled encoder and buffer together
	pe := encoderPool.Get().(*pooledEncoder)
	defer func() {
		pe.reset()
		encoderPool.Put(pe)
	}()

	// Encode first - don't write headers if this fails
	if err := pe.encoder.Encode(data); err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	// Write the encoded data to the response
	_, err := w.Write(pe.buf.Bytes())
	return err
}
