package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "jobctl",
	Short: "Jobctl is a command line tool for interacting with the jobcoordinator controller",
	Long: `jobctl is the command-line interface for the jobcoordinator admission service.

A job submission is resolved against the catalog (clusters, commands,
applications), checked against resource and quota limits, and either
admitted onto a node or rejected with a typed reason.

Common workflows:

  Submit a job:
    jobctl submit --name "my-job" --command "python,script.py" --cluster-tag gpu

  Check a job's status:
    jobctl status <job-id>

  Kill a running job:
    jobctl kill <job-id> --reason "bad input"

Configuration:
  Set the API endpoint and credentials via environment variables or a config file:
    JOBPLANE_URL      Controller endpoint (default: http://localhost:6161)
    JOBPLANE_TOKEN    Tenant API token for authentication`,
}

func Execute() error {
	return rootCmd.Execute()
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		// Search config in home directory with name ".jobctl"
		viper.AddConfigPath(home)
		viper.SetConfigName(".jobctl")
		viper.SetConfigType("yaml")
	}

	// Read environment variables that match "JOBPLANE_VARNAME"
	viper.SetEnvPrefix("JOBPLANE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.jobctl.yaml)")

	rootCmd.PersistentFlags().String("url", "http://localhost:6161", "JobPlane Controller URL")
	viper.BindPFlag("url", rootCmd.PersistentFlags().Lookup("url"))

	rootCmd.PersistentFlags().StringP("token", "t", "", "API Token for authentication")
	viper.BindPFlag("token", rootCmd.PersistentFlags().Lookup("token"))
}
