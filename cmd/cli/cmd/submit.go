package cmd

import (
	"jobcoordinator/pkg/api"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit a job for admission",
	Long: `Submit a job request to the controller's admission pipeline.

The request is resolved against the catalog, checked against resource and
quota limits, and handed off for execution if accepted.

Example:
  jobctl submit --name "my-job" --command "echo,hello" --cluster-tag gpu
  jobctl submit --name "batch" --application reporting --memory-mb 2048`,
	Run: func(cmd *cobra.Command, args []string) {
		flags := cmd.Flags()
		name, _ := flags.GetString("name")
		version, _ := flags.GetString("version")
		tags, _ := flags.GetStringSlice("tag")
		command, _ := flags.GetStringSlice("command")
		memoryMB, _ := flags.GetInt("memory-mb")
		clusterTags, _ := flags.GetStringSlice("cluster-tag")
		commandTags, _ := flags.GetStringSlice("command-tag")
		applications, _ := flags.GetStringSlice("application")

		url := viper.GetString("url")
		token := viper.GetString("token")

		if token == "" {
			cmd.Println("API token not found. Please set it using the --token flag or the JOBPLANE_TOKEN environment variable")
			return
		}

		if name == "" {
			cmd.Println("Error: --name is required")
			return
		}

		client := NewJobClient(url, token)

		req := api.SubmitJobRequest{
			Name:        name,
			Version:     version,
			Tags:        tags,
			CommandArgs: command,
			Criteria: api.SelectionCriteria{
				ClusterTags:  clusterTags,
				CommandTags:  commandTags,
				Applications: applications,
			},
		}
		if memoryMB > 0 {
			req.MemoryMB = &memoryMB
		}

		result, err := client.SubmitJob(req)
		if err != nil {
			if apiErr, ok := err.(*APIError); ok {
				cmd.Printf("Submit failed (%d): %s\n", apiErr.StatusCode, apiErr.Message)
			} else {
				cmd.Printf("Submit failed: %v\n", err)
			}
			return
		}

		cmd.Printf("Job submitted.\nJob ID: %s\n", result.JobID)
	},
}

func init() {
	flags := submitCmd.Flags()
	flags.StringP("name", "n", "", "Name of the job (required)")
	flags.String("version", "", "Job version (optional)")
	flags.StringSlice("tag", []string{}, "Tags attached to the job (optional)")
	flags.StringSliceP("command", "c", []string{}, "Command arguments passed to the resolved command (optional)")
	flags.Int("memory-mb", 0, "Memory override in MB (optional, falls back to the command's default, then the server's configured default)")
	flags.StringSlice("cluster-tag", []string{}, "Restrict selection to clusters carrying these tags")
	flags.StringSlice("command-tag", []string{}, "Restrict selection to commands carrying these tags")
	flags.StringSlice("application", []string{}, "Applications, by name, to attach to the job")

	rootCmd.AddCommand(submitCmd)
}
