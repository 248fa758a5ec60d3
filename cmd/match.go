package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/skillmatch/internal/filtering"
	"github.com/spigell/skillmatch/internal/logger"
	"github.com/spigell/skillmatch/internal/matching"
	"github.com/spigell/skillmatch/internal/salary"
	"github.com/spigell/skillmatch/internal/skills"
)

const (
	PromptBack                = "back"
	PromptDescription         = "Show the full description"
	PromptExclude             = "Append to exclude file"
	PromptSalaryTrend         = "Show salary trend"
	PromptAppendToExcludeFile = "Append all matches to exclude file"
	PromptExit                = "Exit"
)

// matchOutput is what the match command prints.
type matchOutput struct {
	Strategy    string                 `json:"strategy"`
	Skills      []string               `json:"skills"`
	Profile     *skills.ResumeProfile  `json:"profile,omitempty"`
	Matches     []matching.MatchResult `json:"matches"`
	SalaryTrend salary.Trend           `json:"salaryTrend"`
}

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Match candidate skills against the job corpus",
	Run: func(cmd *cobra.Command, _ []string) {
		match(cmd)
	},
}

func init() {
	matchCmd.Flags().StringSliceP("skills", "s", nil, "comma-separated candidate skills")
	matchCmd.Flags().StringP("resume-file", "r", "", "a plain text resume to extract skills from")
	matchCmd.Flags().IntP("width", "w", 0, "maximum number of matches (default is matching.result-width)")
	matchCmd.Flags().String("strategy", "", "ranking strategy: oracle, cosine or overlap")
	matchCmd.Flags().BoolP("interactive", "i", false, "browse the matches interactively")
	matchCmd.Flags().Bool("with-profile", false, "also extract a structured profile from the resume")
	matchCmd.Flags().StringP("output", "o", "", "write JSON output to this file instead of stdout")

	viper.BindPFlag("matching.strategy", matchCmd.Flags().Lookup("strategy"))

	rootCmd.AddCommand(matchCmd)
}

func match(cmd *cobra.Command) {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	defer logger.Sync()

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting config", zap.Error(err))
	}

	skillFlag, _ := cmd.Flags().GetStringSlice("skills")
	resumeFile, _ := cmd.Flags().GetString("resume-file")
	width, _ := cmd.Flags().GetInt("width")
	interactive, _ := cmd.Flags().GetBool("interactive")
	withProfile, _ := cmd.Flags().GetBool("with-profile")
	output, _ := cmd.Flags().GetString("output")

	if len(skillFlag) == 0 && resumeFile == "" {
		logger.Fatal("either --skills or --resume-file is required")
	}
	if withProfile && resumeFile == "" {
		logger.Fatal("--with-profile requires --resume-file")
	}
	if width <= 0 {
		width = config.Matching.ResultWidth
	}

	strategy := strings.ToLower(strings.TrimSpace(config.Matching.Strategy))
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	parts, cleanup, err := buildEngine(ctx, config, strategy, resumeFile != "", logger)
	defer cleanup.Close()
	if err != nil {
		logger.Fatal("building engine", zap.Error(err))
	}

	out := &matchOutput{Strategy: parts.engine.Strategy()}

	candidateSkills := skillFlag
	if resumeFile != "" {
		resume, err := os.ReadFile(resumeFile)
		if err != nil {
			logger.Fatal("reading resume", zap.Error(err))
		}

		extracted, err := skills.NewExtractor(parts.oracle, logger, config.Oracle.MaxLogLength).Extract(ctx, string(resume))
		switch {
		case err == nil:
			candidateSkills = append(candidateSkills, extracted.Skills()...)
		case len(skillFlag) > 0:
			logger.Warn("skill extraction failed, using --skills only", zap.Error(err))
		default:
			logger.Fatal("extracting skills", zap.Error(err))
		}

		if withProfile {
			profile, err := skills.NewProfileExtractor(parts.oracle, logger, config.Oracle.MaxLogLength).Extract(ctx, string(resume))
			if err != nil {
				logger.Warn("profile extraction failed", zap.Error(err))
			}
			out.Profile = profile
		}
	}
	out.Skills = skills.NewProfile(candidateSkills...).Skills()

	out.Matches, err = parts.engine.Match(ctx, candidateSkills, width)
	if err != nil {
		logger.Fatal("matching", zap.Error(err))
	}

	out.SalaryTrend, err = parts.engine.SalaryTrend(ctx, out.Matches)
	if err != nil {
		logger.Warn("salary trend failed", zap.Error(err))
		out.SalaryTrend = salary.Trend{}
	}

	logger.Info("matching done",
		zap.String("strategy", out.Strategy),
		zap.Int("matches", len(out.Matches)),
		zap.Int("salary_titles", len(out.SalaryTrend)),
	)

	if interactive {
		if err := browse(out, config.Matching.ExcludeFile); err != nil {
			logger.Fatal("interactive mode", zap.Error(err))
		}
		return
	}

	if err := writeOutput(out, output); err != nil {
		logger.Fatal("writing output", zap.Error(err))
	}
}

func writeOutput(out *matchOutput, path string) error {
	var w io.Writer = os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func matchItem(r matching.MatchResult) string {
	return fmt.Sprintf("#%d %s @ %s (%.2f)", r.JobID, r.Title, r.Company, r.MatchScore)
}

func toExcluded(results ...matching.MatchResult) []filtering.ExcludedJob {
	now := time.Now()
	jobs := make([]filtering.ExcludedJob, 0, len(results))
	for _, r := range results {
		jobs = append(jobs, filtering.ExcludedJob{ID: r.JobID, Title: r.Title, Company: r.Company, ExcludedAt: now})
	}
	return jobs
}

func browse(out *matchOutput, excludeFile string) error {
	for {
		items := make([]string, 0, len(out.Matches)+2)
		byItem := make(map[string]matching.MatchResult, len(out.Matches))
		for _, r := range out.Matches {
			item := matchItem(r)
			items = append(items, item)
			byItem[item] = r
		}
		items = append(items, PromptSalaryTrend)
		if excludeFile != "" {
			items = append(items, PromptAppendToExcludeFile)
		}
		items = append(items, PromptExit)

		prompt := promptui.Select{
			Label: fmt.Sprintf("%d matches, choose one and press ENTER", len(out.Matches)),
			Items: items,
			Size:  12,
		}

		_, selected, err := prompt.Run()
		if err != nil {
			return err
		}

		switch selected {
		case PromptExit:
			return nil
		case PromptSalaryTrend:
			if err := writeOutput(&matchOutput{SalaryTrend: out.SalaryTrend}, ""); err != nil {
				return err
			}
		case PromptAppendToExcludeFile:
			if err := filtering.AppendExcluded(excludeFile, toExcluded(out.Matches...)); err != nil {
				return err
			}
			fmt.Printf("%d jobs appended to %s\n", len(out.Matches), excludeFile)
		default:
			if err := showMatch(byItem[selected], excludeFile); err != nil {
				return err
			}
		}
	}
}

func showMatch(r matching.MatchResult, excludeFile string) error {
	fmt.Printf("\n%s\n", matchItem(r))
	fmt.Printf("Location:       %s\n", r.Location)
	fmt.Printf("Experience:     %s\n", r.Experience)
	fmt.Printf("Salary:         %s\n", r.SalaryRange)
	fmt.Printf("Matched skills: %s\n", strings.Join(r.MatchedSkills, ", "))
	fmt.Printf("Reason:         %s\n\n", r.MatchReason)

	items := []string{PromptDescription}
	if excludeFile != "" {
		items = append(items, PromptExclude)
	}
	action := promptui.Select{
		Label: "What next?",
		Items: append(items, PromptBack),
	}
	_, selected, err := action.Run()
	if err != nil {
		return err
	}

	switch selected {
	case PromptDescription:
		fmt.Printf("%s\n\n", r.Description)
	case PromptExclude:
		if err := filtering.AppendExcluded(excludeFile, toExcluded(r)); err != nil {
			return err
		}
		fmt.Printf("job %d appended to %s\n", r.JobID, excludeFile)
	}
	return nil
}
