package formatter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

type CSVFormatter struct {
	w io.Writer
}

func NewCSVFormatter(w io.Writer) *CSVFormatter {
	return &CSVFormatter{w: w}
}

// Format writes every chart as a block: a title record, the header and the
// rows, separated by an empty record. Numbers use a plain decimal point.
func (f *CSVFormatter) Format(charts []Chart) error {
	data := nonEmpty(charts)
	if len(data) == 0 {
		_, err := fmt.Fprintln(f.w, NoDataMessage)
		return err
	}

	w := csv.NewWriter(f.w)
	for i, c := range data {
		if i > 0 {
			if err := w.Write([]string{}); err != nil {
				return err
			}
		}
		if err := w.Write([]string{c.Title}); err != nil {
			return err
		}
		if err := w.Write(columns(c)); err != nil {
			return err
		}
		if err := w.WriteAll(rows(c, plain)); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func plain(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
