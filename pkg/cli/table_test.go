package cli

import (
	"bytes"
	"testing"
	"text/tabwriter"
)

func newTestTable(buf *bytes.Buffer, headers ...string) *Table {
	return &Table{
		w:       tabwriter.NewWriter(buf, 0, 0, 2, ' ', 0),
		headers: headers,
	}
}

func TestTable_HeadersAndRows(t *testing.T) {
	var buf bytes.Buffer
	tbl := newTestTable(&buf, "SITE", "CORES")
	tbl.Row("hq", "10.0.0.1")
	tbl.Row("warehouse", "10.1.0.1")
	tbl.Flush()

	want := "SITE       CORES\n" +
		"----       -----\n" +
		"hq         10.0.0.1\n" +
		"warehouse  10.1.0.1\n"
	if got := buf.String(); got != want {
		t.Errorf("table output:\n%q\nwant:\n%q", got, want)
	}
}

func TestTable_EmptyProducesNoOutput(t *testing.T) {
	var buf bytes.Buffer
	tbl := newTestTable(&buf, "SITE", "CORES")
	tbl.Flush()

	if buf.Len() != 0 {
		t.Errorf("empty table wrote %q, want nothing", buf.String())
	}
}

func TestTable_WithPrefix(t *testing.T) {
	var buf bytes.Buffer
	tbl := newTestTable(&buf, "HOST", "PORT").WithPrefix("  ")
	tbl.Row("10.0.0.2", "Gi1/0/5")
	tbl.Flush()

	want := "  HOST      PORT\n" +
		"  ----      ----\n" +
		"  10.0.0.2  Gi1/0/5\n"
	if got := buf.String(); got != want {
		t.Errorf("prefixed table output:\n%q\nwant:\n%q", got, want)
	}
}
