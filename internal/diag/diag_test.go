package diag

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestCollectorOrderIsStable(t *testing.T) {
	c := NewCollector()
	var wg sync.WaitGroup
	for _, inst := range []string{"U3", "U1", "U2"} {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			c.Add(Diagnostic{Severity: Warning, Circuit: "main", Component: "TTL7474", Instance: name, Unit: 2, Message: "b"})
			c.Add(Diagnostic{Severity: Warning, Circuit: "main", Component: "TTL7474", Instance: name, Unit: 1, Message: "a"})
		}(inst)
	}
	wg.Wait()

	got := c.Diagnostics()
	if len(got) != 6 || c.Len() != 6 {
		t.Fatalf("expected 6 diagnostics, got %d", len(got))
	}
	var keys []string
	for _, d := range got {
		keys = append(keys, d.Instance+"/"+d.Message)
	}
	want := "U1/a,U1/b,U2/a,U2/b,U3/a,U3/b"
	if strings.Join(keys, ",") != want {
		t.Fatalf("order = %v, want %s", keys, want)
	}
	if got[0].Level != "warning" {
		t.Fatalf("level not filled: %+v", got[0])
	}
}

func TestNilCollector(t *testing.T) {
	var c *Collector
	c.Add(Diagnostic{Severity: Info})
	if c.Len() != 0 || c.Diagnostics() != nil {
		t.Fatalf("nil collector must drop diagnostics")
	}
}

func TestStringAndLog(t *testing.T) {
	d := Diagnostic{Severity: Warning, Circuit: "main", Component: "TTL7474", Instance: "U1", Unit: 2, Message: "no clock connection"}
	s := d.String()
	for _, want := range []string{"warning", `"TTL7474"`, `"main"`, "unit 2", "no clock connection"} {
		if !strings.Contains(s, want) {
			t.Fatalf("missing %q in %q", want, s)
		}
	}

	var buf bytes.Buffer
	log := logrus.New()
	log.SetOutput(&buf)
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true, DisableColors: true})
	LogTo(log, []Diagnostic{d})
	out := buf.String()
	for _, want := range []string{"level=warning", "unit=2", "instance=U1", "circuit=main"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in log output %q", want, out)
		}
	}
	if Count([]Diagnostic{d}, Warning) != 1 || Count([]Diagnostic{d}, Info) != 0 {
		t.Fatalf("Count mismatch")
	}
}
