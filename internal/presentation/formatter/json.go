package formatter

import (
	"io"

	"github.com/bytedance/sonic"
)

type JSONFormatter struct {
	w io.Writer
}

func NewJSONFormatter(w io.Writer) *JSONFormatter {
	return &JSONFormatter{w: w}
}

// Format writes the charts as an indented JSON array; an empty set is [].
func (f *JSONFormatter) Format(charts []Chart) error {
	data := nonEmpty(charts)
	out, err := sonic.ConfigStd.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	out = append(out, '\n')
	_, err = f.w.Write(out)
	return err
}
