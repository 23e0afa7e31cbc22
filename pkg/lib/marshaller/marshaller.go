package marshaller

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/c2h5oh/datasize"
	"gopkg.in/yaml.v3"
)

// MaxSerializedInput bounds the size of job files and API responses we are
// willing to decode.
const MaxSerializedInput = 10 * datasize.MB

// Normalizable is implemented by types that fill in defaults after decoding.
type Normalizable interface {
	Normalize()
}

func normalizeIfApplicable(obj interface{}) {
	if n, ok := obj.(Normalizable); ok {
		n.Normalize()
	}
}

// CheckSize rejects inputs larger than MaxSerializedInput.
func CheckSize(b []byte) error {
	if size := datasize.ByteSize(len(b)); size > MaxSerializedInput {
		return fmt.Errorf("input of %s exceeds the maximum of %s", size.HR(), MaxSerializedInput.HR())
	}
	return nil
}

// YAMLUnmarshalWithMax decodes YAML (or JSON) into obj. Unknown keys are
// ignored and fields absent from the input keep the value already in obj, so
// callers can pre-populate defaults.
func YAMLUnmarshalWithMax(b []byte, obj interface{}) error {
	if err := CheckSize(b); err != nil {
		return err
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return fmt.Errorf("empty document")
	}
	if err := yaml.Unmarshal(b, obj); err != nil {
		return err
	}
	normalizeIfApplicable(obj)
	return nil
}

// JSONUnmarshalWithMax decodes JSON into obj after checking its size.
func JSONUnmarshalWithMax(b []byte, obj interface{}) error {
	if err := CheckSize(b); err != nil {
		return err
	}
	if err := json.Unmarshal(b, obj); err != nil {
		return err
	}
	normalizeIfApplicable(obj)
	return nil
}
