package gateway

import (
	"github.com/spf13/cobra"

	"github.com/lucid-framework/auth-gateway/internal/business"
	"github.com/lucid-framework/auth-gateway/internal/cmdutils"
)

func Cmd(buildInfo string) *cobra.Command {
	return cmdutils.CobraCommand(
		"gateway",
		"Lucid auth gateway",
		"Runs the OAuth2 authorization gateway fronting the Lucid admin surface.",
		buildInfo,
		cmdutils.RunAsService,
		business.Main,
	)
}
