package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/reifyhq/reify/internals/schemas"
	"github.com/reifyhq/reify/sdk"

	z "github.com/Oudwins/zog"
)

var ErrUsage = errors.New("usage:\n  reify apply --file <path> --token <auth-token> [--wait] [--wait-timeout <duration>]\n  reify task <id>\n  reify version")

type ApplyArgs struct {
	File    string `zog:"file"`
	Token   string `zog:"token"`
	Wait    bool   `zog:"wait"`
	Timeout string `zog:"timeout"`
}

var applyArgsSchema = z.Struct(z.Shape{
	"File":    z.String().Required().Trim(),
	"Token":   z.String().Required().Trim(),
	"Wait":    z.Bool().Optional(),
	"Timeout": z.String().Optional().Trim(),
})

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, ErrUsage) {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		return ErrUsage
	}

	command := args[0]

	switch command {
	case "apply":
		parsed, err := parseApplyArgs(args[1:])
		if err != nil {
			return err
		}
		if err := validateApplyArgs(&parsed); err != nil {
			return err
		}
		config, err := readConfigFile(parsed.File)
		if err != nil {
			return err
		}
		request := schemas.ConfigurationRequest{Config: config}
		if err := request.Validate(); err != nil {
			return err
		}
		client := sdk.NewClient(sdk.WithAuthToken(parsed.Token))
		if err := ensureDaemonRunning(client); err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		response, err := client.CreateConfiguration(ctx, request)
		if err != nil {
			return err
		}
		fmt.Printf("task: %s\nstatus: %s\n", response.TaskID, response.Status)
		if parsed.Wait {
			timeout, err := parseWaitTimeout(parsed.Timeout)
			if err != nil {
				return err
			}
			waitCtx, waitCancel := context.WithTimeout(context.Background(), timeout)
			defer waitCancel()
			final, err := client.WaitForTask(waitCtx, response.TaskID, 2*time.Second)
			if err != nil {
				return err
			}
			printTaskSummary(final)
			if final.Status == schemas.TaskStatusFailed {
				if final.Error != "" {
					return fmt.Errorf("task failed: %s", final.Error)
				}
				return errors.New("task failed")
			}
		}
		return nil
	case "task":
		if len(args) != 2 {
			return ErrUsage
		}
		client := sdk.NewClient()
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		response, err := client.TaskStatus(ctx, args[1])
		if err != nil {
			return err
		}
		printTaskSummary(response)
		return nil
	case "version":
		client := sdk.NewClient()
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		version, err := client.Version(ctx)
		if err != nil {
			return err
		}
		fmt.Println(version)
		return nil
	default:
		return ErrUsage
	}
}

func parseApplyArgs(args []string) (ApplyArgs, error) {
	parsed := ApplyArgs{}
	for i := 0; i < len(args); {
		switch args[i] {
		case "--file":
			if i+1 >= len(args) {
				return parsed, ErrUsage
			}
			parsed.File = args[i+1]
			i += 2
		case "--token":
			if i+1 >= len(args) {
				return parsed, ErrUsage
			}
			parsed.Token = args[i+1]
			i += 2
		case "--wait":
			parsed.Wait = true
			i += 1
		case "--wait-timeout":
			if i+1 >= len(args) {
				return parsed, ErrUsage
			}
			parsed.Timeout = args[i+1]
			i += 2
		default:
			return parsed, ErrUsage
		}
	}
	return parsed, nil
}

func validateApplyArgs(payload *ApplyArgs) error {
	if issues := applyArgsSchema.Validate(payload); len(issues) > 0 {
		return fmt.Errorf("invalid arguments:\n%s", z.Issues.Prettify(issues))
	}
	return nil
}

func readConfigFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	var config map[string]any
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("invalid config file: %w", err)
	}
	return config, nil
}

func ensureDaemonRunning(client *sdk.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	if _, err := client.Version(ctx); err == nil {
		return nil
	}

	if err := startDaemon(); err != nil {
		return err
	}

	return waitForDaemon(client)
}

func startDaemon() error {
	path, err := findDaemonBinary()
	if err != nil {
		return err
	}

	cmd := exec.Command(path)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Start()
}

func waitForDaemon(client *sdk.Client) error {
	var lastErr error
	for i := 0; i < 8; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
		_, err := client.Version(ctx)
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err
		time.Sleep(time.Duration(i+1) * 150 * time.Millisecond)
	}

	if lastErr != nil {
		return lastErr
	}
	return errors.New("failed to reach reifyd")
}

func parseWaitTimeout(raw string) (time.Duration, error) {
	if strings.TrimSpace(raw) == "" {
		return 45 * time.Minute, nil
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid wait timeout: %w", err)
	}
	return value, nil
}

func printTaskSummary(response *schemas.TaskResponse) {
	fmt.Printf("task: %s\nstatus: %s\n", response.TaskID, response.Status)
	if response.Progress != "" {
		fmt.Printf("progress: %s\n", response.Progress)
	}
	if response.Result != nil {
		encoded, err := json.MarshalIndent(response.Result, "", "  ")
		if err == nil {
			fmt.Printf("result:\n%s\n", encoded)
		}
	}
	if response.Error != "" {
		fmt.Printf("error: %s\n", response.Error)
	}
}

func findDaemonBinary() (string, error) {
	executable, err := os.Executable()
	if err == nil {
		candidate := filepath.Join(filepath.Dir(executable), "reifyd")
		if _, statErr := os.Stat(candidate); statErr == nil {
			return candidate, nil
		}
	}

	path, err := exec.LookPath("reifyd")
	if err != nil {
		return "", fmt.Errorf("reifyd not found in PATH")
	}
	return path, nil
}
