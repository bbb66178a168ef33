package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/persona-agent/internal/ai"
	"github.com/persona-agent/internal/calendar"
	"github.com/persona-agent/internal/compliance"
	"github.com/persona-agent/internal/config"
	"github.com/persona-agent/internal/planner"
	"github.com/persona-agent/internal/scoring"
	"github.com/persona-agent/internal/social"
	"github.com/persona-agent/internal/storage"
	"github.com/persona-agent/internal/storage/sqlite"
	"github.com/persona-agent/internal/trends"
	"github.com/persona-agent/pkg/logger"
	"github.com/persona-agent/pkg/ratelimit"
)

var (
	cfgFile string
	cfg     *config.Config
	log     *logger.Logger
	repo    storage.Repository
	limiter *ratelimit.MultiLimiter
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "persona-agent",
		Short: "Account persona planning, content diagnosis and brand strategy",
		Long: `Plans short-video account personas, generates hot topics and a
publishing calendar, diagnoses content and drafts brand marketing plans
using an OpenAI-compatible chat model (DeepSeek by default).`,
		PersistentPreRunE:  initializeApp,
		PersistentPostRunE: closeApp,
		SilenceUsage:       true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./configs/config.yaml)")

	// Add subcommands
	rootCmd.AddCommand(analyzeCmd())
	rootCmd.AddCommand(topicsCmd())
	rootCmd.AddCommand(diagnoseCmd())
	rootCmd.AddCommand(brandCmd())
	rootCmd.AddCommand(compareCmd())
	rootCmd.AddCommand(historyCmd())
	rootCmd.AddCommand(sessionsCmd())
	rootCmd.AddCommand(autocorrectCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func initializeApp(cmd *cobra.Command, args []string) error {
	var err error

	// Load config
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	log = logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})

	limiter = ratelimit.NewLimiter(ratelimit.Limits{
		LLMPerMinute:    cfg.RateLimit.LLMRequestsPerMinute,
		LLMBurst:        cfg.RateLimit.LLMBurst,
		SocialPerMinute: cfg.RateLimit.SocialRequestsPerMinute,
		SheetsPerMinute: cfg.RateLimit.SheetsRequestsPerMinute,
	})

	// autocorrect is offline
	if cmd.Name() == "autocorrect" {
		return nil
	}

	repo, err = sqlite.New(cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	// Run migrations
	if err := repo.Migrate(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

func closeApp(cmd *cobra.Command, args []string) error {
	if repo != nil {
		return repo.Close()
	}
	return nil
}

// newAIClient validates the config first so a missing API key fails early
func newAIClient() (*ai.Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return ai.NewClient(cfg, limiter, log)
}

func newPersonaPlanner() (*planner.PersonaPlanner, error) {
	aiClient, err := newAIClient()
	if err != nil {
		return nil, err
	}
	var trendSource planner.TrendsContext
	if cfg.Trends.Enabled {
		trendSource = trends.NewService(cfg.Trends, limiter, log)
	}
	return planner.NewPersonaPlanner(aiClient, repo, trendSource, log), nil
}

// ============ ANALYZE ============

func analyzeCmd() *cobra.Command {
	var (
		input     planner.Input
		inputFile string
		formats   []string
		toSheets  bool
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze an account persona",
		Long: `Analyzes the account persona and stores a planning session.
With goal "20个爆款选题" hot topics and the content calendar are generated too.
When a competitor platform is given, competitor accounts are compared.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			if inputFile != "" {
				loaded, err := planner.LoadInput(inputFile)
				if err != nil {
					return err
				}
				input = loaded
			}

			p, err := newPersonaPlanner()
			if err != nil {
				return err
			}

			fmt.Println("⏳ 正在分析账号人设，请稍后...")
			session, err := p.Analyze(ctx, input)
			if err != nil {
				return err
			}

			printAnalysis(session)

			if session.Input.Goal == planner.GoalTopics {
				if err := generateTopics(ctx, p, session, formats, toSheets); err != nil {
					return err
				}
			}

			if session.Input.CompetitorPlatform != "" {
				compareAccounts(ctx, session.Input.CompetitorPlatform, session.Input.Competitors)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&inputFile, "input", "", "YAML or JSON file with the account profile")
	cmd.Flags().StringVar(&input.AccountName, "name", "", "Account name")
	cmd.Flags().StringVar(&input.Industry, "industry", "", "Industry (美妆/教育/3C数码/母婴/美食)")
	cmd.Flags().StringSliceVar((*[]string)(&input.CoreAdvantages), "advantages", nil, "Core advantages (comma separated)")
	cmd.Flags().StringVar(&input.TargetAudience, "audience", "", "Target audience")
	cmd.Flags().StringSliceVar((*[]string)(&input.Competitors), "competitors", nil, "Competitor accounts (comma separated)")
	cmd.Flags().StringVar(&input.CompetitorPlatform, "platform", "", "Competitor platform (抖音/小红书/视频号)")
	cmd.Flags().StringVar(&input.Goal, "goal", planner.GoalFollowers, "Operation goal ("+strings.Join(planner.Goals, "/")+")")
	cmd.Flags().StringSliceVar(&formats, "export", nil, "Calendar export formats (csv,xlsx,json)")
	cmd.Flags().BoolVar(&toSheets, "sheets", false, "Append the calendar to Google Sheets")

	return cmd
}

func printAnalysis(s *planner.Session) {
	fmt.Println("\n📑 账号人设分析完成")
	fmt.Printf("Session:      %s\n", s.ID)
	fmt.Printf("人设定位建议: %s\n", s.Analysis.Persona)
	if len(s.Analysis.Differentiation) > 0 {
		fmt.Println("差异化分析:")
		for _, d := range s.Analysis.Differentiation {
			fmt.Printf("- %s\n", d)
		}
	}
	fmt.Println("⚠️ 风险提示:")
	fmt.Println(s.Analysis.Risk)
}

// ============ TOPICS ============

func topicsCmd() *cobra.Command {
	var (
		sessionID string
		formats   []string
		toSheets  bool
	)

	cmd := &cobra.Command{
		Use:   "topics",
		Short: "Generate (or regenerate) hot topics for a session",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			p, err := newPersonaPlanner()
			if err != nil {
				return err
			}

			session, err := p.Load(ctx, sessionID)
			if err != nil {
				return fmt.Errorf("failed to load session %s: %w", sessionID, err)
			}

			return generateTopics(ctx, p, session, formats, toSheets)
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "Session ID")
	cmd.Flags().StringSliceVar(&formats, "export", nil, "Calendar export formats (csv,xlsx,json)")
	cmd.Flags().BoolVar(&toSheets, "sheets", false, "Append the calendar to Google Sheets")
	_ = cmd.MarkFlagRequired("session")

	return cmd
}

func generateTopics(ctx context.Context, p *planner.PersonaPlanner, session *planner.Session, formats []string, toSheets bool) error {
	fmt.Println("⏳ 正在生成爆款选题...")
	if err := p.HotTopics(ctx, session); err != nil {
		return err
	}

	fmt.Println("✅ 选题生成完成")
	fmt.Println(session.TopicsRaw)

	entries := session.Calendar(time.Now(), cfg.CalendarPlatforms())
	fmt.Println("\n📅 内容排期表:")
	for _, e := range entries {
		fmt.Printf("  %s  %-6s %s\n", e.Date.Format(calendar.DateLayout), e.Platform, e.Topic)
	}

	if len(formats) > 0 {
		paths, err := calendar.Export(cfg.Calendar.ExportDir, entries, formats)
		if err != nil {
			return err
		}
		for _, path := range paths {
			fmt.Printf("Exported: %s\n", path)
		}
	}

	if toSheets {
		exporter, err := calendar.NewSheetsExporter(ctx, cfg.Sheets, limiter, log)
		if err != nil {
			return err
		}
		rows, err := exporter.Append(ctx, entries)
		if err != nil {
			return err
		}
		fmt.Printf("Appended %d rows to Google Sheets\n", rows)
	}
	return nil
}

// ============ DIAGNOSE ============

func diagnoseCmd() *cobra.Command {
	var (
		text       string
		file       string
		exportPath string
	)

	cmd := &cobra.Command{
		Use:   "diagnose",
		Short: "Score content and suggest improvements",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			if file != "" {
				data, err := os.ReadFile(file)
				if err != nil {
					return fmt.Errorf("failed to read %s: %w", file, err)
				}
				text = string(data)
			}

			aiClient, err := newAIClient()
			if err != nil {
				return err
			}
			d := planner.NewDiagnoser(aiClient, repo, log)

			fmt.Println("⏳ 正在检测，请稍候...")
			result, err := d.Diagnose(ctx, text)
			if err != nil {
				return err
			}

			fmt.Println("\n=== 各项指标得分 ===")
			for _, s := range result.Scores {
				fmt.Printf("%-8s %6.2f%%\n", s.Name, s.Score)
			}

			labels := map[string]string{
				ai.TaskOptimizeCopy: "优化后的文案",
				ai.TaskViralTitle:   "推荐爆款标题",
				ai.TaskHashtags:     "推荐爆款话题（6个）",
				ai.TaskPostingTime:  "推荐发布时间",
			}
			for _, o := range result.Outputs {
				fmt.Printf("\n=== %s ===\n%s\n", labels[o.Task], o.Display())
			}

			if len(result.RiskWords) > 0 {
				fmt.Println("\n=== 风险词 ===")
				for _, f := range result.RiskWords {
					fmt.Printf("%s ×%d → %s\n", f.Word, f.Count, f.Replacement)
				}
			}

			if exportPath != "" {
				f, err := os.Create(exportPath)
				if err != nil {
					return err
				}
				if err := scoring.WriteCSV(f, result.Scores); err != nil {
					f.Close()
					return err
				}
				if err := f.Close(); err != nil {
					return err
				}
				fmt.Printf("\n历史记录已导出: %s\n", exportPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "Content to diagnose")
	cmd.Flags().StringVar(&file, "file", "", "Read the content from a file")
	cmd.Flags().StringVar(&exportPath, "export", "", "Write the scores to a CSV file")

	return cmd
}

// ============ BRAND ============

func brandCmd() *cobra.Command {
	var (
		brief     planner.BrandBrief
		inputFile string
	)

	cmd := &cobra.Command{
		Use:   "brand",
		Short: "Generate a brand marketing plan",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			if inputFile != "" {
				loaded, err := planner.LoadBrief(inputFile)
				if err != nil {
					return err
				}
				brief = loaded
			}

			aiClient, err := newAIClient()
			if err != nil {
				return err
			}
			s := planner.NewStrategist(aiClient, log)

			result, err := s.Plan(ctx, brief)
			if err != nil {
				return err
			}

			fmt.Printf("=== 品牌分析 ===\n%s\n\n", result.BrandAnalysis)
			fmt.Printf("=== 产品分析 ===\n%s\n\n", result.ProductAnalysis)
			fmt.Printf("=== 品牌需求分析 ===\n%s\n\n", result.NeedsAnalysis)
			fmt.Printf("=== 推广渠道分析 ===\n%s\n\n", result.ChannelAnalysis)
			fmt.Printf("=== 品牌营销操盘手完整方案 ===\n%s\n", result.Plan)
			return nil
		},
	}

	cmd.Flags().StringVar(&inputFile, "input", "", "YAML or JSON file with the brand brief")
	cmd.Flags().StringVar(&brief.BrandInfo, "brand-info", "", "Brand information")
	cmd.Flags().StringVar(&brief.ProductInfo, "product-info", "", "Product information")
	cmd.Flags().StringVar(&brief.BrandNeeds, "needs", "", "Brand needs")
	cmd.Flags().StringVar(&brief.Channels, "channels", "", "Promotion channels")

	return cmd
}

// ============ COMPARE ============

func compareCmd() *cobra.Command {
	var (
		platform string
		accounts []string
	)

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare competitor accounts on a platform",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !compareAccounts(context.Background(), platform, accounts) {
				return fmt.Errorf("comparison failed")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&platform, "platform", social.PlatformDouyin, "Platform (抖音/小红书/视频号)")
	cmd.Flags().StringSliceVar(&accounts, "accounts", nil, "Competitor accounts (comma separated)")
	_ = cmd.MarkFlagRequired("accounts")

	return cmd
}

func compareAccounts(ctx context.Context, platform string, accounts []string) bool {
	mgr := social.NewDefaultManager(cfg.Social, limiter, log)
	cmp, err := mgr.Compare(ctx, platform, accounts)
	if err != nil {
		fmt.Printf("竞品对比失败: %v\n", err)
		return false
	}

	fmt.Println("\n竞品账号对比分析:")
	fmt.Printf("%-20s %-6s %12s %10s\n", "账号名称", "平台", "粉丝量级", "内容数量")
	for _, row := range cmp.Rows() {
		fmt.Printf("%-20s %-6s %12d %10d\n", row.Nickname, row.Platform, row.Followers, row.Posts)
	}
	for _, e := range cmp.Errors() {
		fmt.Printf("  ! %v\n", e)
	}
	return true
}

// ============ HISTORY / SESSIONS ============

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Analysis history",
	}

	var (
		limit   int
		account string
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List past analyses",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := storage.DefaultHistoryFilter()
			filter.Limit = limit
			if account != "" {
				filter.AccountName = &account
			}
			rows, err := repo.ListHistory(context.Background(), filter)
			if err != nil {
				return err
			}
			if len(rows) == 0 {
				fmt.Println("No history found")
				return nil
			}
			fmt.Printf("%-5s %-20s %-8s %s\n", "ID", "ACCOUNT", "INDUSTRY", "CREATED")
			for _, h := range rows {
				fmt.Printf("%-5d %-20s %-8s %s\n", h.ID, h.AccountName, h.Industry, h.CreatedAt.Format("2006-01-02 15:04"))
			}
			return nil
		},
	}
	list.Flags().IntVar(&limit, "limit", 20, "Maximum rows")
	list.Flags().StringVar(&account, "account", "", "Filter by account name")

	cmd.AddCommand(list)
	return cmd
}

func sessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Planning sessions",
	}

	var (
		limit    int
		industry string
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List planning sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := storage.DefaultSessionFilter()
			filter.Limit = limit
			if industry != "" {
				filter.Industry = &industry
			}
			rows, err := repo.ListSessions(context.Background(), filter)
			if err != nil {
				return err
			}
			if len(rows) == 0 {
				fmt.Println("No sessions found")
				return nil
			}
			fmt.Printf("%-36s %-16s %-8s %-6s %-13s %s\n", "ID", "ACCOUNT", "INDUSTRY", "TOPICS", "STATUS", "UPDATED")
			for _, s := range rows {
				fmt.Printf("%-36s %-16s %-8s %-6d %-13s %s\n",
					s.PublicID, truncate(s.AccountName, 16), s.Industry, len(s.Topics), s.Status,
					s.UpdatedAt.Format("2006-01-02 15:04"))
			}
			return nil
		},
	}
	list.Flags().IntVar(&limit, "limit", 20, "Maximum rows")
	list.Flags().StringVar(&industry, "industry", "", "Filter by industry")

	cmd.AddCommand(list)
	return cmd
}

// ============ AUTOCORRECT ============

func autocorrectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "autocorrect [text]",
		Short: "Replace absolute claims with compliant wording",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			fmt.Println(compliance.AutoCorrect(text))
			for _, f := range compliance.Findings(text) {
				fmt.Fprintf(os.Stderr, "%s ×%d → %s\n", f.Word, f.Count, f.Replacement)
			}
			return nil
		},
	}
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
