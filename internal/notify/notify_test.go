package notify

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecorder(t *testing.T) {
	var r Recorder
	r.Notify(Error("one"))
	r.Notify(Success("two"))

	assert.Equal(t, []Notification{
		{Level: LevelError, Message: "one"},
		{Level: LevelSuccess, Message: "two"},
	}, r.All())

	drained := r.Drain()
	assert.Len(t, drained, 2)
	assert.Empty(t, r.All())
}

func TestConsole(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf)

	c.Notify(Error("Network error. Please check your connection."))
	c.Notify(Notification{Level: "custom", Message: "hi"})

	assert.Equal(t, "✗ Network error. Please check your connection.\n- hi\n", buf.String())
}
