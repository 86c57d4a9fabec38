package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var killCmd = &cobra.Command{
	Use:   "kill [job_id]",
	Short: "Terminate a running job",
	Long:  `Send a kill request for a job. Killing a job that already finished or was never admitted on this node is not an error.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		jobID := args[0]
		reason, _ := cmd.Flags().GetString("reason")

		url := viper.GetString("url")
		token := viper.GetString("token")

		if token == "" {
			cmd.Println("API token not found. Please set it using the --token flag or the JOBPLANE_TOKEN environment variable")
			return
		}

		client := NewJobClient(url, token)
		if err := client.KillJob(jobID, reason); err != nil {
			if apiErr, ok := err.(*APIError); ok {
				cmd.Printf("Kill failed (%d): %s\n", apiErr.StatusCode, apiErr.Message)
			} else {
				cmd.Printf("Kill failed: %v\n", err)
			}
			return
		}

		cmd.Printf("Kill request sent for job %s\n", jobID)
	},
}

func init() {
	killCmd.Flags().String("reason", "", "Reason recorded for the kill (optional)")
	rootCmd.AddCommand(killCmd)
}
