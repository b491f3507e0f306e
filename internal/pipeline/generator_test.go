package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/plcdoc/internal/report"
)

const mainPOU = `<?xml version="1.0" encoding="utf-8"?>
<TcPlcObject Version="1.1.0.1" ProductVersion="3.1.4024.12">
  <POU Name="MAIN" Id="{5c4fa0c0-0001}">
    <Declaration><![CDATA[VAR x : INT; END_VAR]]></Declaration>
    <Implementation>
      <ST><![CDATA[x := 1; // init]]></ST>
    </Implementation>
  </POU>
</TcPlcObject>`

const helperDUT = `<?xml version="1.0" encoding="utf-8"?>
<TcPlcObject Version="1.1.0.1">
  <DUT Name="Point3D" Id="{5c4fa0c0-0002}">
    <Declaration><![CDATA[TYPE Point3D :
STRUCT
	x : LREAL;
END_STRUCT
END_TYPE]]></Declaration>
  </DUT>
</TcPlcObject>`

func gvl(name string) string {
	return fmt.Sprintf(`<TcPlcObject><GVL Name=%q><Declaration><![CDATA[VAR_GLOBAL
	n : INT;
END_VAR]]></Declaration></GVL></TcPlcObject>`, name)
}

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
}

func fixedOptions(in, out string) Options {
	ro := report.DefaultOptions()
	ro.Now = func() time.Time { return time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC) }
	return Options{Input: in, Output: out, Workers: 4, Report: ro}
}

func newTestGenerator(console io.Writer) *Generator {
	return NewGenerator(slog.New(slog.NewTextHandler(io.Discard, nil)), console, nil)
}

func TestGenerator_ExampleScenario(t *testing.T) {
	in := t.TempDir()
	writeFiles(t, in, map[string]string{
		"POUs/Main.TcPOU":       mainPOU,
		"POUs/Sub/Helper.TcDUT": helperDUT,
		"POUs/readme.txt":       "not a source file",
	})
	out := filepath.Join(t.TempDir(), "report.md")

	var console bytes.Buffer
	sum, err := newTestGenerator(&console).Run(context.Background(), fixedOptions(in, out))
	require.NoError(t, err)

	assert.Equal(t, 2, sum.Found)
	assert.Equal(t, 2, sum.Extracted)
	assert.Empty(t, sum.Failures)
	assert.Equal(t, report.FormatMarkdown, sum.Format)
	assert.Equal(t,
		"Found 2 TwinCAT files\nMarkdown generated successfully: "+out+"\n",
		console.String())

	md, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(md),
		"- [1 POUs](#sec-1)\n  - [1.1 POU: MAIN ](#sec-1-1)\n- [2 POUs/Sub](#sec-2)\n  - [2.1 DUT: Point3D](#sec-2-1)\n")
	assert.Contains(t, string(md), `x := 1; <span class="cm">// init</span>`)
	assert.Contains(t, string(md), "Total files: 2")
}

func TestGenerator_PDFDefault(t *testing.T) {
	in := t.TempDir()
	writeFiles(t, in, map[string]string{"POUs/Main.TcPOU": mainPOU})
	out := filepath.Join(t.TempDir(), "plc.pdf")

	var console bytes.Buffer
	_, err := newTestGenerator(&console).Run(context.Background(), fixedOptions(in, out))
	require.NoError(t, err)
	assert.Contains(t, console.String(), "PDF generated successfully: "+out+"\n")

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
}

func TestGenerator_FormatOverride(t *testing.T) {
	in := t.TempDir()
	writeFiles(t, in, map[string]string{"POUs/Main.TcPOU": mainPOU})
	out := filepath.Join(t.TempDir(), "report.out")

	opts := fixedOptions(in, out)
	opts.Format = report.FormatHTML
	var console bytes.Buffer
	sum, err := newTestGenerator(&console).Run(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, report.FormatHTML, sum.Format)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "<!DOCTYPE html>"))
}

func TestGenerator_SkipsBrokenFiles(t *testing.T) {
	in := t.TempDir()
	writeFiles(t, in, map[string]string{
		"POUs/Broken.TcPOU": "not xml at all",
		"POUs/Main.TcPOU":   mainPOU,
		"DUTs/Empty.TcDUT":  "",
	})
	out := filepath.Join(t.TempDir(), "report.md")

	var console bytes.Buffer
	sum, err := newTestGenerator(&console).Run(context.Background(), fixedOptions(in, out))
	require.NoError(t, err)

	assert.Equal(t, 3, sum.Found)
	assert.Equal(t, 1, sum.Extracted)
	require.Len(t, sum.Failures, 2)
	assert.Equal(t, filepath.Join(in, "DUTs", "Empty.TcDUT"), sum.Failures[0].Path)
	assert.Equal(t, filepath.Join(in, "POUs", "Broken.TcPOU"), sum.Failures[1].Path)

	lines := strings.Split(strings.TrimSpace(console.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Found 3 TwinCAT files", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "Error processing "+filepath.Join(in, "DUTs", "Empty.TcDUT")+": "), lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "Error processing "+filepath.Join(in, "POUs", "Broken.TcPOU")+": "), lines[2])
	assert.True(t, strings.HasPrefix(lines[3], "Markdown generated successfully: "))

	md, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(md), "- [1 POUs](#sec-1)\n  - [1.1 POU: MAIN ](#sec-1-1)\n\n")
	assert.NotContains(t, string(md), "DUTs")
	assert.NotContains(t, string(md), "Broken")
}

func TestGenerator_KeepsDiscoveryOrderUnderParallelism(t *testing.T) {
	in := t.TempDir()
	files := map[string]string{}
	var want strings.Builder
	want.WriteString("- [1 GVLs](#sec-1)\n")
	for i := range 24 {
		name := fmt.Sprintf("Globals%02d", i)
		files[fmt.Sprintf("GVLs/%s.TcGVL", name)] = gvl(name)
		fmt.Fprintf(&want, "  - [1.%d GVL: %s](#sec-1-%d)\n", i+1, name, i+1)
	}
	writeFiles(t, in, files)

	for _, workers := range []int{1, 3, 16} {
		out := filepath.Join(t.TempDir(), "report.md")
		opts := fixedOptions(in, out)
		opts.Workers = workers

		_, err := newTestGenerator(io.Discard).Run(context.Background(), opts)
		require.NoError(t, err)

		md, err := os.ReadFile(out)
		require.NoError(t, err)
		assert.Contains(t, string(md), want.String(), "workers=%d", workers)
	}
}

func TestGenerator_Idempotent(t *testing.T) {
	in := t.TempDir()
	writeFiles(t, in, map[string]string{
		"POUs/Main.TcPOU":       mainPOU,
		"POUs/Sub/Helper.TcDUT": helperDUT,
		"GVLs/Globals.TcGVL":    gvl("Globals"),
	})
	g := newTestGenerator(io.Discard)

	var docs [][]byte
	for range 2 {
		out := filepath.Join(t.TempDir(), "report.md")
		_, err := g.Run(context.Background(), fixedOptions(in, out))
		require.NoError(t, err)
		data, err := os.ReadFile(out)
		require.NoError(t, err)
		docs = append(docs, data)
	}
	assert.Equal(t, string(docs[0]), string(docs[1]))
}

func TestGenerator_EmptyInput(t *testing.T) {
	in := t.TempDir()
	out := filepath.Join(t.TempDir(), "report.pdf")

	var console bytes.Buffer
	sum, err := newTestGenerator(&console).Run(context.Background(), fixedOptions(in, out))
	require.NoError(t, err)
	assert.Zero(t, sum.Found)
	assert.True(t, strings.HasPrefix(console.String(), "Found 0 TwinCAT files\n"))
	assert.FileExists(t, out)
}

func TestGenerator_IgnorePatterns(t *testing.T) {
	in := t.TempDir()
	writeFiles(t, in, map[string]string{
		"POUs/Main.TcPOU":             mainPOU,
		"_Boilerplate/Template.TcPOU": mainPOU,
		"POUs/_Boilerplate/Old.TcPOU": mainPOU,
	})
	out := filepath.Join(t.TempDir(), "report.md")
	opts := fixedOptions(in, out)
	opts.Ignore = []string{"**/_Boilerplate"}

	var console bytes.Buffer
	sum, err := newTestGenerator(&console).Run(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Found)
}

func TestGenerator_MissingInputIsFatal(t *testing.T) {
	out := filepath.Join(t.TempDir(), "report.pdf")
	var console bytes.Buffer
	_, err := newTestGenerator(&console).Run(context.Background(), fixedOptions(filepath.Join(t.TempDir(), "nope"), out))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "collect files")
	assert.NoFileExists(t, out)
	assert.Empty(t, console.String())
}

func TestGenerator_UnwritableOutputIsFatal(t *testing.T) {
	in := t.TempDir()
	writeFiles(t, in, map[string]string{"POUs/Main.TcPOU": mainPOU})
	out := filepath.Join(t.TempDir(), "missing", "report.pdf")

	var console bytes.Buffer
	_, err := newTestGenerator(&console).Run(context.Background(), fixedOptions(in, out))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "render report")
	assert.NotContains(t, console.String(), "generated successfully")
}

func TestGenerator_CanceledContext(t *testing.T) {
	in := t.TempDir()
	writeFiles(t, in, map[string]string{"POUs/Main.TcPOU": mainPOU})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestGenerator(io.Discard).Run(ctx, fixedOptions(in, filepath.Join(t.TempDir(), "r.pdf")))
	assert.ErrorIs(t, err, context.Canceled)
}

type countingProgress struct {
	total    int
	done     atomic.Int32
	finished bool
}

func (p *countingProgress) Start(total int) { p.total = total }
func (p *countingProgress) Done()           { p.done.Add(1) }
func (p *countingProgress) Finish()         { p.finished = true }

func TestGenerator_ReportsProgress(t *testing.T) {
	in := t.TempDir()
	writeFiles(t, in, map[string]string{
		"POUs/Main.TcPOU":       mainPOU,
		"POUs/Sub/Helper.TcDUT": helperDUT,
	})
	p := &countingProgress{}
	g := NewGenerator(slog.New(slog.NewTextHandler(io.Discard, nil)), io.Discard, p)

	_, err := g.Run(context.Background(), fixedOptions(in, filepath.Join(t.TempDir(), "r.md")))
	require.NoError(t, err)
	assert.Equal(t, 2, p.total)
	assert.Equal(t, int32(2), p.done.Load())
	assert.True(t, p.finished)
	assert.Equal(t, 2, g.stats.Snapshot().Count)
}

func TestBarProgress_WritesToWriter(t *testing.T) {
	var buf bytes.Buffer
	p := NewBarProgress(&buf)
	p.Start(3)
	for range 3 {
		p.Done()
	}
	p.Finish()
	assert.NotEmpty(t, buf.String())

	p.Start(0)
	p.Done()
	p.Finish()
}

func TestGenerator_LogsExtractionStats(t *testing.T) {
	in := t.TempDir()
	writeFiles(t, in, map[string]string{
		"POUs/Main.TcPOU":       mainPOU,
		"POUs/Sub/Helper.TcDUT": helperDUT,
	})
	var logs bytes.Buffer
	g := NewGenerator(slog.New(slog.NewTextHandler(&logs, nil)), io.Discard, nil)

	_, err := g.Run(context.Background(), fixedOptions(in, filepath.Join(t.TempDir(), "r.md")))
	require.NoError(t, err)

	var line string
	for _, l := range strings.Split(logs.String(), "\n") {
		if strings.Contains(l, `msg="extraction complete"`) {
			line = l
		}
	}
	require.NotEmpty(t, line)
	for _, key := range []string{"files=2", "extracted=2", "failed=0", "count=2", "min=", "avg=", "p50=", "p95=", "max="} {
		assert.Contains(t, line, key)
	}
}
