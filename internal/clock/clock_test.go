package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSystem_Now(t *testing.T) {
	before := time.Now()
	now := System{}.Now()
	assert.False(t, now.Before(before))
}

func TestSystem_Ticker(t *testing.T) {
	tk := System{}.NewTicker(5 * time.Millisecond)
	defer tk.Stop()

	select {
	case <-tk.C():
	case <-time.After(2 * time.Second):
		require.Fail(t, "ticker never fired")
	}
}
