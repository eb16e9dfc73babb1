package chain

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
)

// eventColumns describe one row per recorded infection event.
var eventColumns = []string{"chain_id", "node_id", "parent_id", "generation", "time"}

// WriteCSV renders a result set as CSV. Runs that tracked trees emit one row
// per infection event; runs that tracked counts emit one row per chain with
// the requested statistic columns.
func WriteCSV(w io.Writer, rs *ResultSet) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if len(rs.Results) > 0 && rs.Results[0].Nodes != nil {
		if err := writeEventRows(cw, rs); err != nil {
			return err
		}
		cw.Flush()
		return cw.Error()
	}
	if err := writeChainRows(cw, rs); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

func writeChainRows(cw *csv.Writer, rs *ResultSet) error {
	header := []string{"chain_id"}
	if rs.Stat == StatSize || rs.Stat == StatBoth {
		header = append(header, "size")
	}
	if rs.Stat == StatLength || rs.Stat == StatBoth {
		header = append(header, "length")
	}
	header = append(header, "truncated")
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, r := range rs.Results {
		row := []string{strconv.Itoa(r.ChainID)}
		if rs.Stat == StatSize || rs.Stat == StatBoth {
			row = append(row, strconv.Itoa(r.Size))
		}
		if rs.Stat == StatLength || rs.Stat == StatBoth {
			row = append(row, strconv.Itoa(r.Length))
		}
		row = append(row, strconv.FormatBool(r.Truncated))
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func writeEventRows(cw *csv.Writer, rs *ResultSet) error {
	if err := cw.Write(eventColumns); err != nil {
		return err
	}
	for _, r := range rs.Results {
		for _, n := range r.Nodes {
			parent := ""
			if n.ParentID != NoParent {
				parent = strconv.Itoa(n.ParentID)
			}
			row := []string{
				strconv.Itoa(r.ChainID),
				strconv.Itoa(n.ID),
				parent,
				strconv.Itoa(n.Generation),
				strconv.FormatFloat(n.Time, 'g', -1, 64),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}
	return nil
}

// ExportCSV writes a result set to a CSV file at path.
func ExportCSV(path string, rs *ResultSet) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating csv file: %w", err)
	}
	defer f.Close()
	if err := WriteCSV(f, rs); err != nil {
		return fmt.Errorf("writing csv rows: %w", err)
	}
	return nil
}
