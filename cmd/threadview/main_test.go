package main

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idursun/threadview/internal/config"
	"github.com/idursun/threadview/internal/logger"
	"github.com/idursun/threadview/internal/topic"
)

func init() {
	logger.UseWriter(io.Discard)
}

const topicYAML = `id: 7
title: Release planning
category: meta
posts:
  - number: 1
    author: alice
    created_at: 2026-01-02T10:00:00Z
    body: When do we ship?
  - number: 2
    author: bob
    created_at: 2026-01-02T11:00:00Z
    body: Next week.
`

func writeTopic(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "topic.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestRootCmd_Flags(t *testing.T) {
	var opts options
	cmd := newRootCmd(&opts)
	require.NoError(t, cmd.ParseFlags([]string{"--dump", "--width", "100", "-d"}))

	assert.True(t, opts.Dump)
	assert.True(t, opts.Debug)
	assert.Equal(t, 100, opts.Width)
	assert.Equal(t, 24, opts.Height)
}

func TestRootCmd_RejectsExtraArgs(t *testing.T) {
	cmd := newRootCmd(&options{})
	cmd.SetArgs([]string{"a.yaml", "b.yaml"})
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	assert.Error(t, cmd.Execute())
}

func TestDump(t *testing.T) {
	tp, err := topic.Load(writeTopic(t, topicYAML))
	require.NoError(t, err)
	cfg := config.Default()

	frame := ansi.Strip(dump(cfg, tp, reloader("", tp), 50, 12))
	assert.Contains(t, frame, "Release planning")
	assert.Contains(t, frame, "#1 alice")
	assert.Contains(t, frame, "#2 bob")
	assert.Contains(t, frame, "1 / 2")
}

func TestReloader_ReadsTheFileAgain(t *testing.T) {
	path := writeTopic(t, topicYAML)
	tp, err := topic.Load(path)
	require.NoError(t, err)

	edited := topicYAML + "    revision: 1\n"
	require.NoError(t, os.WriteFile(path, []byte(edited), 0o644))

	p, err := reloader(path, tp)(2)
	require.NoError(t, err)
	assert.Equal(t, 1, p.Revision)

	_, err = reloader(path, tp)(9)
	assert.True(t, errors.Is(err, topic.ErrUnknownPost))
}

func TestReloader_SampleTopic(t *testing.T) {
	tp := topic.Sample(3, time.Now())
	p, err := reloader("", tp)(3)
	require.NoError(t, err)
	assert.Equal(t, tp.Posts[2], p)
}

func TestOpenReadState(t *testing.T) {
	cfg := config.Default()
	cfg.ReadState.Path = filepath.Join(t.TempDir(), "state", "read.db")

	store := openReadState(cfg, &topic.Topic{ID: 7})
	require.NotNil(t, store)
	defer store.Close()
	assert.Equal(t, 0, store.LastRead())
}
