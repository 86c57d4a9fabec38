package cmd

import (
	"fmt"
	"time"

	"jobcoordinator/pkg/api"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var statusCmd = &cobra.Command{
	Use:   "status [job_id]",
	Short: "Get the current state of a job",
	Long:  `Retrieve a job's current status (INIT, RESOLVED, ACCEPTED, RUNNING, SUCCEEDED, FAILED, KILLED), execution host, and archive location.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		jobID := args[0]

		url := viper.GetString("url")
		token := viper.GetString("token")

		if token == "" {
			cmd.Println("API token not found. Please set it using the --token flag or the JOBPLANE_TOKEN environment variable")
			return
		}

		client := NewJobClient(url, token)
		job, err := client.GetJob(jobID)
		if err != nil {
			if apiErr, ok := err.(*APIError); ok {
				cmd.Printf("Status failed (%d): %s\n", apiErr.StatusCode, apiErr.Message)
			} else {
				cmd.Printf("Status failed: %v\n", err)
			}
			return
		}

		printStatus(cmd, *job)
	},
}

func printStatus(cmd *cobra.Command, job api.JobResponse) {
	icon := statusIcon(job.Status)
	cmd.Printf("%s %sJob Details%s\n", icon, colorBold, colorReset)
	cmd.Println("──────────────────────────────")

	cmd.Printf("%sID:%s              %s\n", colorDim, colorReset, job.ID)
	cmd.Printf("%sName:%s            %s\n", colorDim, colorReset, job.Name)
	cmd.Printf("%sUser:%s            %s\n", colorDim, colorReset, job.User)
	cmd.Printf("%sStatus:%s          %s\n", colorDim, colorReset, colorizeStatus(job.Status))
	if job.StatusMessage != "" {
		cmd.Printf("%sMessage:%s        %s\n", colorDim, colorReset, job.StatusMessage)
	}
	if job.ExecutionHost != "" {
		cmd.Printf("%sExecution Host:%s %s\n", colorDim, colorReset, job.ExecutionHost)
	}
	if job.ArchiveLocation != "" {
		cmd.Printf("%sArchive:%s        %s\n", colorDim, colorReset, job.ArchiveLocation)
	}
	cmd.Printf("%sCreated:%s        %s\n", colorDim, colorReset, formatTimeWithRelative(&job.CreatedAt))
}

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorDim    = "\033[2m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
)

func statusIcon(status string) string {
	switch status {
	case "RUNNING":
		return colorGreen + "●" + colorReset
	case "FAILED", "KILLED":
		return colorRed + "✗" + colorReset
	case "ACCEPTED", "RESOLVED":
		return colorYellow + "⏳" + colorReset
	case "INIT":
		return colorCyan + "◯" + colorReset
	default:
		return "•"
	}
}

func colorizeStatus(status string) string {
	icon := statusIcon(status)
	switch status {
	case "RUNNING":
		return icon + " " + colorGreen + status + colorReset
	case "FAILED", "KILLED":
		return icon + " " + colorRed + status + colorReset
	case "ACCEPTED", "RESOLVED":
		return icon + " " + colorYellow + status + colorReset
	case "INIT":
		return icon + " " + colorCyan + status + colorReset
	default:
		return status
	}
}

func formatTimeWithRelative(t *time.Time) string {
	if t == nil {
		return "-"
	}
	relative := relativeTime(*t)
	return fmt.Sprintf("%s %s(%s ago)%s", t.Format("Mon, 02 Jan 2006 15:04:05 MST"), colorDim, relative, colorReset)
}

func relativeTime(t time.Time) string {
	duration := time.Since(t)

	if duration < time.Minute {
		return fmt.Sprintf("%ds", int(duration.Seconds()))
	} else if duration < time.Hour {
		return fmt.Sprintf("%dm", int(duration.Minutes()))
	} else if duration < 24*time.Hour {
		return fmt.Sprintf("%dh", int(duration.Hours()))
	} else {
		days := int(duration.Hours() / 24)
		if days == 1 {
			return "1 day"
		}
		return fmt.Sprintf("%d days", days)
	}
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
