package scoring

import (
	"encoding/csv"
	"io"
	"strconv"
)

// ScoreHeader is the header row of WriteCSV
var ScoreHeader = []string{"评估维度", "得分"}

// WriteCSV writes one row per category with the score to two decimals
func WriteCSV(w io.Writer, result Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ScoreHeader); err != nil {
		return err
	}
	for _, s := range result {
		if err := cw.Write([]string{s.Name, strconv.FormatFloat(s.Score, 'f', 2, 64)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
