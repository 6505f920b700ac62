// SPDX-License-Identifier: MPL-2.0

package taskgraph

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radoslaw-panuszewski/typesafe-conventions-gradle-plugin-sub000/internal/testutil"
)

// copyStep copies src to dst and counts its executions.
func copyStep(name, src, dst string, runs *int) *Step {
	return NewStep(name).
		InputFile(src).
		Output(dst).
		DoLast(func(context.Context, *Step) error {
			*runs++
			data, err := os.ReadFile(src)
			if err != nil {
				return err
			}
			return os.WriteFile(dst, data, 0o644)
		})
}

func TestRun_UpToDate(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src, dst := filepath.Join(dir, "in.txt"), filepath.Join(dir, "out.txt")
	history := filepath.Join(dir, "build", "history.cbor")
	testutil.MustWriteFile(t, src, "v1")

	runs := 0
	run := func() *Report {
		t.Helper()
		e, err := New(history)
		require.NoError(t, err)
		require.NoError(t, e.Register(copyStep("copy", src, dst, &runs)))
		report, err := e.Run(context.Background())
		require.NoError(t, err)
		return report
	}

	assert.Equal(t, []string{"copy"}, run().Executed)
	assert.Equal(t, []string{"copy"}, run().UpToDate, "unchanged inputs and outputs")
	assert.Equal(t, 1, runs)

	testutil.MustWriteFile(t, src, "v2")
	assert.Equal(t, []string{"copy"}, run().Executed, "input change")

	testutil.MustWriteFile(t, dst, "tampered")
	assert.Equal(t, []string{"copy"}, run().Executed, "output change")
	assert.Equal(t, "v2", testutil.MustReadFile(t, dst))

	require.NoError(t, os.Remove(dst))
	assert.Equal(t, []string{"copy"}, run().Executed, "deleted output")
	assert.Equal(t, 4, runs)
}

func TestRun_InputValues(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	out := filepath.Join(dir, "out.txt")
	e, err := New("")
	require.NoError(t, err)

	step := NewStep("write").
		InputValue("content", []byte("a")).
		Output(out).
		DoLast(func(_ context.Context, s *Step) error {
			return os.WriteFile(out, s.inputValues["content"], 0o644)
		})
	require.NoError(t, e.Register(step))

	report, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"write"}, report.Executed)

	report, err = e.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"write"}, report.UpToDate)

	step.InputValue("content", []byte("b"))
	report, err = e.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"write"}, report.Executed)
	assert.Equal(t, "b", testutil.MustReadFile(t, out))
}

func TestRun_DoLastActionKeepsStepCacheable(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src, dst := filepath.Join(dir, "in.txt"), filepath.Join(dir, "out")
	testutil.MustWriteFile(t, src, "hello")
	e, err := New("")
	require.NoError(t, err)

	runs := 0
	step := copyStep("produce", src, dst, &runs)
	step.DoLast(func(context.Context, *Step) error {
		data, err := os.ReadFile(dst)
		if err != nil {
			return err
		}
		return os.WriteFile(dst, append(data, []byte(" world")...), 0o644)
	})
	require.NoError(t, e.Register(step))

	_, err = e.Run(context.Background())
	require.NoError(t, err)
	report, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"produce"}, report.UpToDate)
	assert.Equal(t, "hello world", testutil.MustReadFile(t, dst))
}

func TestRegister_RejectsOverlaps(t *testing.T) {
	t.Parallel()

	e, err := New("")
	require.NoError(t, err)
	require.NoError(t, e.Register(NewStep("extract").InputFile("/src").Output("/build/extracted")))

	err = e.Register(NewStep("extract"))
	require.ErrorIs(t, err, ErrDuplicateStep)

	err = e.Register(NewStep("rewrite").InputFile("/build/extracted").Output("/build/extracted"))
	var overlap *OverlappingOutputsError
	require.ErrorAs(t, err, &overlap)
	assert.Empty(t, overlap.Other, "reading its own output")

	err = e.Register(NewStep("patch").InputFile("/other").Output("/build/extracted/a.kts"))
	require.ErrorAs(t, err, &overlap)
	assert.Equal(t, "extract", overlap.Other)

	require.NoError(t, e.Register(NewStep("generate").Output("/build/extracted-other")))
}

func TestRun_DependencyOrder(t *testing.T) {
	t.Parallel()

	e, err := New("")
	require.NoError(t, err)

	var got []string
	record := func(name string) *Step {
		return NewStep(name).DoLast(func(context.Context, *Step) error {
			got = append(got, name)
			return nil
		})
	}
	require.NoError(t, e.Register(record("compile").DependsOn("entrypoint", "accessors", "extract")))
	require.NoError(t, e.Register(record("accessors")))
	require.NoError(t, e.Register(record("entrypoint")))
	require.NoError(t, e.Register(record("extract")))
	require.NoError(t, e.Register(record("unrelated")))

	report, err := e.Run(context.Background(), "compile")
	require.NoError(t, err)
	assert.Equal(t, []string{"entrypoint", "accessors", "extract", "compile"}, got)
	assert.Equal(t, got, report.Executed)

	_, err = e.Run(context.Background(), "missing")
	require.ErrorIs(t, err, ErrUnknownStep)
}

func TestRun_Cycle(t *testing.T) {
	t.Parallel()

	e, err := New("")
	require.NoError(t, err)
	require.NoError(t, e.Register(NewStep("a").DependsOn("b")))
	require.NoError(t, e.Register(NewStep("b").DependsOn("a")))

	_, err = e.Run(context.Background())
	var cycle *CycleError
	require.ErrorAs(t, err, &cycle)
	assert.ElementsMatch(t, []string{"a", "b"}, cycle.Cycle)
}

func TestRun_FailureAndDryRun(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	history := filepath.Join(dir, "history.cbor")
	out := filepath.Join(dir, "out.txt")
	boom := errors.New("boom")

	e, err := New(history)
	require.NoError(t, err)
	require.NoError(t, e.Register(NewStep("fail").Output(out).DoLast(func(context.Context, *Step) error { return boom })))
	_, err = e.Run(context.Background())
	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, "fail", stepErr.Step)
	require.ErrorIs(t, err, boom)

	ran := false
	dry, err := New(filepath.Join(dir, "dry.cbor"), WithDryRun(true))
	require.NoError(t, err)
	require.NoError(t, dry.Register(NewStep("write").Output(out).DoLast(func(context.Context, *Step) error {
		ran = true
		return nil
	})))
	report, err := dry.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, report.DryRun)
	assert.Equal(t, []string{"write"}, report.Executed)
	assert.False(t, ran)
	assert.NoFileExists(t, filepath.Join(dir, "dry.cbor"))
}

func TestHistory_RoundTripAndCorruption(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "history.cbor")
	h := newHistory()
	in, err := inputFingerprint(NewStep("a").InputValue("k", []byte("in")))
	require.NoError(t, err)
	out, err := outputFingerprint(NewStep("a"))
	require.NoError(t, err)
	h.Steps["a"] = Record{Inputs: in, Outputs: out}
	require.NoError(t, h.Save(path))

	loaded, err := LoadHistory(path)
	require.NoError(t, err)
	assert.Equal(t, h.Steps, loaded.Steps)

	testutil.MustWriteFile(t, path, "not cbor")
	loaded, err = LoadHistory(path)
	require.NoError(t, err)
	assert.Empty(t, loaded.Steps)
}

func TestFingerprint(t *testing.T) {
	t.Parallel()

	fingerprint := func(s *Step) Fingerprint {
		t.Helper()
		f, err := inputFingerprint(s)
		require.NoError(t, err)
		return f
	}
	x := fingerprint(NewStep("a").InputValue("k", []byte("x")))
	assert.Equal(t, x, fingerprint(NewStep("b").InputValue("k", []byte("x"))))
	assert.NotEqual(t, x, fingerprint(NewStep("a").InputValue("k", []byte("y"))))
	assert.NotEqual(t, x, fingerprint(NewStep("a").InputValue("kx", nil)), "fields are length-prefixed")

	empty, err := outputFingerprint(NewStep("a"))
	require.NoError(t, err)
	assert.NotEqual(t, fingerprint(NewStep("a")), empty, "domains are separated")
	assert.Len(t, empty.String(), 64)
}
