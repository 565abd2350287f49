package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/rollbridge/internal/command"
	"github.com/cory-johannsen/rollbridge/internal/dice"
)

func reconciled(t *testing.T, expr string, values dice.FaceValues) (dice.ParsedExpression, dice.Outcome) {
	t.Helper()
	e := dice.MustParse(expr)
	out := dice.Resolve(e, dice.HostRoll{Values: values}, nil)
	require.True(t, out.Reconciled, "%s: %v", expr, out.Err)
	return e, out
}

func TestIsCritHit(t *testing.T) {
	tests := []struct {
		name   string
		expr   string
		values dice.FaceValues
		want   bool
	}{
		{"natural 20", "1d20+4", dice.FaceValues{20: {20}}, true},
		{"natural 19", "1d20+4", dice.FaceValues{20: {19}}, false},
		{"no d20", "1d12", dice.FaceValues{12: {12}}, false},
		{"negative d20 group", "10-1d20", dice.FaceValues{20: {20}}, false},
		{"second d20 group", "1d20+1d20", dice.FaceValues{20: {2, 20}}, true},
		{"rerolled into 20", "1d20ro=1", dice.FaceValues{20: {1, 20}}, true},
		{"rerolled away from 20", "1d20ro<20", dice.FaceValues{20: {20, 4}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, out := reconciled(t, tt.expr, tt.values)
			assert.Equal(t, tt.want, isCritHit(e, out, 20))
		})
	}
}

func TestIsCritHit_Unreconciled(t *testing.T) {
	e := dice.MustParse("1d20")
	out := dice.Resolve(e, dice.HostRoll{Values: dice.FaceValues{20: {20, 20}}, Total: 40}, nil)
	require.False(t, out.Reconciled)
	assert.False(t, isCritHit(e, out, 20))
}

func TestCritTracker(t *testing.T) {
	e, out := reconciled(t, "1d20+5", dice.FaceValues{20: {20}})
	attack := command.Roll{Action: "Bite", RollType: command.RollTypeAttack}
	damage := command.Roll{Action: "Bite", RollType: command.RollTypeDamage}

	var c critTracker
	assert.False(t, c.consume(damage), "idle tracker never applies")

	assert.False(t, c.observe(command.Roll{RollType: command.RollTypeSave}, e, out, 20), "only attacks arm")
	assert.True(t, c.observe(attack, e, out, 20))
	assert.Equal(t, critAwaitingDamage, c.state)
	assert.Equal(t, "Bite", c.action)

	assert.True(t, c.consume(damage))
	assert.Equal(t, critIdle, c.state)
	assert.Empty(t, c.action)
	assert.False(t, c.consume(damage), "a crit applies once")
}

// TestCritTracker_ConsumeAlwaysIdles_Property verifies any dispatched roll
// leaves the tracker idle, whether or not the crit applied.
func TestCritTracker_ConsumeAlwaysIdles_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		c := critTracker{state: critAwaitingDamage, action: rapid.SampledFrom([]string{"", "Bite", "Claw"}).Draw(rt, "armed")}
		roll := command.Roll{
			Action:   rapid.SampledFrom([]string{"", "Bite", "Claw"}).Draw(rt, "action"),
			RollType: rapid.SampledFrom(command.RollTypes).Draw(rt, "type"),
		}
		applied := c.consume(roll)
		assert.Equal(rt, critIdle, c.state)
		assert.Empty(rt, c.action)
		if applied {
			assert.Equal(rt, command.RollTypeDamage, roll.RollType)
		}
	})
}
