package base

import (
	"io"

	json "github.com/goccy/go-json"
)

// JsonOption configures JsonSerialize / JsonDeserialize.
type JsonOption func(*jsonOptions)

type jsonOptions struct {
	pretty bool
}

func OptionJsonPrettyPrint(enabled bool) JsonOption {
	return func(o *jsonOptions) { o.pretty = enabled }
}

// JsonSerialize encodes value to w.
func JsonSerialize(value interface{}, w io.Writer, opts ...JsonOption) error {
	o := jsonOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	enc := json.NewEncoder(w)
	if o.pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(value)
}

// JsonDeserialize decodes a compile_commands.json-shaped document from
// r into value.
func JsonDeserialize(value interface{}, r io.Reader) error {
	return json.NewDecoder(r).Decode(value)
}
