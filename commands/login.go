package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	loginUser     string
	loginPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to the portal and store the session",
	RunE:  runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored session",
	RunE:  runLogout,
}

func init() {
	rootCmd.AddCommand(loginCmd, logoutCmd)

	loginCmd.Flags().StringVar(&loginUser, "user", "", "User name")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "Password")
	_ = loginCmd.MarkFlagRequired("user")
	_ = loginCmd.MarkFlagRequired("password")
}

func runLogin(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, false)
	if err != nil {
		return err
	}
	defer a.Close()

	sess, err := a.api.Login(ctx, loginUser, loginPassword)
	if err != nil {
		return err
	}
	if err := saveSession(a.settings.SessionFile, sess); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Bienvenido %s (%s, %s)\n", sess.User(), sess.Company(), sess.Role())
	return nil
}

func runLogout(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings(viper.GetViper())
	if err != nil {
		return err
	}
	existed, err := removeSession(s.SessionFile)
	if err != nil {
		return err
	}
	if !existed {
		fmt.Fprintln(cmd.OutOrStdout(), "No hay sesión activa")
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Sesión cerrada")
	return nil
}
