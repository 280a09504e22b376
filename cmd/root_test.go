package cmd

import "testing"

func TestRootCommand_HelpCommandHidden(t *testing.T) {
	rootCmd.InitDefaultHelpCmd()

	var found bool
	for _, c := range rootCmd.Commands() {
		if c.Name() != "no-help" {
			continue
		}
		found = true
		if !c.Hidden {
			t.Error("help command should be hidden")
		}
		if c.Use == "" {
			t.Error("help command needs a Use line")
		}
	}
	if !found {
		t.Fatal("help command not registered")
	}

	rootCmd.InitDefaultHelpFlag()
	if f := rootCmd.Flags().Lookup("help"); f == nil || f.Shorthand != "h" {
		t.Error("--help should stay available as -h")
	}
}
