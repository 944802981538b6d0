package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/kapu/interview-teleprompter-go/internal/adapter"
	"github.com/kapu/interview-teleprompter-go/internal/profile"
	"github.com/kapu/interview-teleprompter-go/internal/service/nlu"
	"github.com/kapu/interview-teleprompter-go/internal/util"
)

// ask prints the classification and suggested response for questions given
// as arguments, or one per stdin line. No server or microphone is needed.
func main() {
	profileName := flag.StringP("profile", "p", "startup", "candidate profile (startup, academic)")
	profileFile := flag.String("profile-file", "", "load the profile from a YAML file instead")
	logLevel := flag.String("log-level", "warn", "log level")
	flag.Parse()

	logger, err := util.NewLogger(*logLevel, "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	var p *profile.Profile
	if *profileFile != "" {
		p, err = profile.LoadFile(*profileFile)
	} else {
		p, err = profile.Load(*profileName)
	}
	if err != nil {
		logger.Error("Failed to load profile", zap.Error(err))
		os.Exit(1)
	}

	responder := nlu.NewResponder(p, logger)
	formatter := adapter.NewResponseFormatter()

	if flag.NArg() > 0 {
		fmt.Println(formatter.FormatAnswer(responder.Answer(strings.Join(flag.Args(), " "))))
		return
	}

	scanner := bufio.NewScanner(os.Stdin)
	first := true
	for scanner.Scan() {
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}
		if !first {
			fmt.Println()
		}
		first = false
		fmt.Println(formatter.FormatAnswer(responder.Answer(question)))
	}
	if err := scanner.Err(); err != nil {
		logger.Error("Failed to read stdin", zap.Error(err))
		os.Exit(1)
	}
}
