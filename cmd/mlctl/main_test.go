package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZeroShotCmd_RequiresCapabilityAndInput(t *testing.T) {
	require.Error(t, zeroShotCmd.Args(zeroShotCmd, nil))
	require.Error(t, zeroShotCmd.Args(zeroShotCmd, []string{"sentiment_analysis"}))
	require.NoError(t, zeroShotCmd.Args(zeroShotCmd, []string{"sentiment_analysis", "this is great"}))

	// The usage string and the argument contract agree: both args are
	// mandatory.
	assert.Equal(t, "zeroshot <capability> <input>", zeroShotCmd.Use)
}

func TestLearnCmd_AcceptsExactlyOneInput(t *testing.T) {
	require.Error(t, learnCmd.Args(learnCmd, nil))
	require.NoError(t, learnCmd.Args(learnCmd, []string{"hello"}))
	require.Error(t, learnCmd.Args(learnCmd, []string{"hello", "extra"}))
}
