package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/theirongolddev/taxgame/internal/cli"
	"github.com/theirongolddev/taxgame/internal/game"
	"github.com/theirongolddev/taxgame/internal/logging"
	"github.com/theirongolddev/taxgame/internal/model"
	"github.com/theirongolddev/taxgame/internal/pipeline"
	"github.com/theirongolddev/taxgame/internal/report"
	"github.com/theirongolddev/taxgame/internal/source"

	"github.com/spf13/cobra"
)

var (
	flagCalcData    string
	flagCalcCountry string
	flagCalcYear    string
	flagCalcLang    string
	flagCalcSalary  string
	flagCalcPDF     string
)

var calcCmd = &cobra.Command{
	Use:   "calc",
	Short: "Calculate where a salary's tax goes",
	Example: "  taxgame calc --country in --salary 15,00,000\n" +
		"  taxgame calc --country us --year 2026 --salary 95000 --pdf breakdown.pdf",
	RunE: runCalc,
}

func init() {
	calcCmd.Flags().StringVar(&flagCalcData, "data", "", "Site data directory")
	calcCmd.Flags().StringVar(&flagCalcCountry, "country", "", "Country ID (default: the site's default country)")
	calcCmd.Flags().StringVar(&flagCalcYear, "year", "", "Budget year key (default: the country's default budget)")
	calcCmd.Flags().StringVar(&flagCalcLang, "lang", "", "Language for category labels")
	calcCmd.Flags().StringVar(&flagCalcSalary, "salary", "", "Annual salary")
	calcCmd.Flags().StringVar(&flagCalcPDF, "pdf", "", "Also write the breakdown to this PDF file")
	_ = calcCmd.MarkFlagRequired("salary")
	rootCmd.AddCommand(calcCmd)
}

func runCalc(c *cobra.Command, _ []string) error {
	src := source.New(flagOr(c, "data", flagCalcData, cfg.Site.DataDir))

	id := flagCalcCountry
	if id == "" {
		var err error
		if id, err = defaultCountry(src); err != nil {
			return err
		}
	}
	if flagCalcYear != "" {
		if _, err := model.ParseBudgetKey(flagCalcYear); err != nil {
			return err
		}
	}

	country, err := pipeline.LoadCountry(src, id, flagCalcYear)
	if err != nil {
		return fmt.Errorf("loading %s: %w", id, err)
	}
	meta := country.Meta

	lang := flagCalcLang
	if lang == "" {
		lang = meta.DefaultLanguage
	}
	pack, err := src.LoadLanguage(lang)
	if err != nil {
		logging.Log.Warnf("language %s unavailable, using category ids: %v", lang, err)
		pack = nil
	}

	payload := &model.ClientPayload{
		Meta:            meta,
		Budget:          pipeline.Localize(country.Budget, pack),
		Achievements:    country.Achievements,
		Strings:         pack,
		CurrentLanguage: lang,
	}
	ctrl, err := game.New(payload, "/"+meta.ID+"/", nil, game.Options{})
	if err != nil {
		return err
	}
	if err := ctrl.Submit(flagCalcSalary); err != nil {
		return err
	}
	st := ctrl.State()
	printCalc(st, country.TrendYear)

	if flagCalcPDF != "" {
		err := report.WriteFile(flagCalcPDF, report.Breakdown{
			Meta:        meta,
			Year:        st.Budget.Year,
			SourceURL:   st.SourceURL(),
			Salary:      st.Last.Salary,
			Tax:         st.Last.Tax,
			Level:       st.Last.Level,
			Categories:  st.Last.Breakdown,
			Unlocked:    st.Last.Unlocked,
			GeneratedAt: time.Now(),
		})
		if err != nil {
			return err
		}
		fmt.Printf("  PDF written to %s\n", flagCalcPDF)
	}
	return nil
}

// defaultCountry returns the first enabled default country.
func defaultCountry(src *source.Dir) (string, error) {
	site, err := src.LoadConfig()
	if err != nil {
		return "", err
	}
	for _, cc := range site.Enabled() {
		if cc.Default {
			return cc.ID, nil
		}
	}
	return "", errors.New("no default country configured; pass --country")
}

func printCalc(st game.State, trendYear string) {
	calc := st.Last
	meta := st.Meta

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("%s %s  %s", meta.Flag, meta.Name, st.Budget.Year)))
	fmt.Println()

	fmt.Print(cli.RenderTable(cli.Table{
		Rows: [][]string{
			{"Salary", cli.FormatMoney(int64(calc.Salary), meta)},
			{"Total tax", cli.FormatMoney(calc.Tax, meta)},
			{"", cli.FormatCompact(calc.Tax, cli.CompactSystem(meta))},
			cli.SeparatorRow,
			{st.Strings.Text("citizen_rank", "Citizen level"), fmt.Sprintf("%d / 99", calc.Level)},
		},
	}))

	fmt.Println()
	maxShare := 0.0
	for _, e := range calc.Breakdown {
		maxShare = max(maxShare, e.Percent)
	}
	rows := make([][]string, len(calc.Breakdown))
	for i, e := range calc.Breakdown {
		rows[i] = []string{
			e.Icon + " " + e.Label,
			cli.FormatPercent(e.Percent),
			cli.FormatMoney(e.Amount, meta),
			cli.RenderChange(e.Change),
			cli.RenderShareBar(e.Percent, maxShare, 20),
		}
	}
	title := "Where it goes"
	if trendYear != "" {
		title += "  (change vs " + trendYear + ")"
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   title,
		Headers: []string{"Category", "Share", "Amount", "Change", ""},
		Rows:    rows,
		Left:    []bool{true, false, false, false, true},
	}))

	if len(calc.Unlocked) > 0 {
		fmt.Println()
		fmt.Println("  Unlocked")
		for _, a := range calc.Unlocked {
			fmt.Printf("    %s %s  %s\n", a.Icon, a.Label, cli.RenderMuted(a.Description))
		}
	}
	if src := st.SourceURL(); src != "" {
		fmt.Println()
		fmt.Println(cli.RenderMuted("  Source: " + src))
	}
	fmt.Println()
}
