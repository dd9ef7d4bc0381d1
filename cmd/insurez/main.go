// insurez is the offline companion to the API server: it prices a policy,
// ranks policies for a profile and runs the mini calculators without a
// network round trip.
//
// Usage:
//
//	insurez premium --age 30 --type Life --sum-assured 1000000 --term 20
//	insurez recommend --profile me.jsonc [--policies list.json]
//	insurez calc emi principal=500000 annual_rate=9 tenure_months=60
//	insurez calculators
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	json "github.com/goccy/go-json"
	"github.com/spf13/pflag"
	"github.com/tidwall/jsonc"

	"insurez/internal/calculators"
	"insurez/internal/catalog"
	"insurez/internal/format"
	"insurez/internal/matcher"
	"insurez/internal/models"
	"insurez/internal/premium"
	"insurez/internal/rules"
)

// usageError is returned for bad invocations; main exits 2 for these.
type usageError struct{ msg string }

func (e *usageError) Error() string { return e.msg }
func (e *usageError) ExitCode() int { return 2 }

func usagef(format string, args ...interface{}) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		if coder, ok := err.(interface{ ExitCode() int }); ok {
			os.Exit(coder.ExitCode())
		}
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	if len(args) == 0 {
		printUsage(out)
		return usagef("missing command")
	}
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "premium":
		return runPremium(rest, out)
	case "recommend":
		return runRecommend(rest, out)
	case "calc":
		return runCalc(rest, out)
	case "calculators":
		return runCalculators(rest, out)
	case "help", "-h", "--help":
		printUsage(out)
		return nil
	default:
		return usagef("unknown command %q", cmd)
	}
}

func printUsage(out io.Writer) {
	fmt.Fprint(out, `insurez - insurance premium and recommendation toolkit

Usage:
  insurez premium [flags]                       price a policy
  insurez recommend --profile FILE [flags]      rank policies for a profile
  insurez calc ID key=value...                  run one calculator
  insurez calculators                           list calculators

Profile and policy files are JSON; comments and trailing commas are allowed.
Run "insurez COMMAND --help" for the flags of one command.
`)
}

// parseFlags parses a subcommand flag set. A pflag.ErrHelp comes back as
// (true, nil) so the caller can return quietly.
func parseFlags(fs *pflag.FlagSet, args []string, out io.Writer) (bool, error) {
	fs.SetOutput(out)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return true, nil
		}
		return false, &usageError{msg: err.Error()}
	}
	return false, nil
}

// loadRules activates an override table when path is set and returns the
// active one.
func loadRules(path string) (*rules.Table, error) {
	if path == "" {
		return rules.Default(), nil
	}
	return rules.LoadFile(path)
}

func runPremium(args []string, out io.Writer) error {
	var (
		in        models.PremiumInput
		rulesFile string
		asJSON    bool
	)
	fs := pflag.NewFlagSet("premium", pflag.ContinueOnError)
	fs.IntVar(&in.Age, "age", 0, "age of the insured in years")
	fs.StringVarP(&in.PolicyType, "type", "t", "", "policy type (Life, Health, Motor, Home, Travel)")
	fs.Float64Var(&in.SumAssured, "sum-assured", 0, "sum assured in rupees")
	fs.IntVar(&in.PolicyTerm, "term", 1, "policy term in years")
	fs.StringVar(&in.SmokingStatus, "smoking", "Non-Smoker", "Smoker or Non-Smoker")
	fs.StringVar(&in.OccupationRisk, "occupation", "low", "occupation risk: low, medium or high")
	fs.StringSliceVar(&in.Addons, "addon", nil, "rider to add (repeatable or comma separated)")
	fs.StringVar(&rulesFile, "rules", "", "YAML rule table to use instead of the built-in one")
	fs.BoolVar(&asJSON, "json", false, "print the result as JSON")
	if help, err := parseFlags(fs, args, out); help || err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return usagef("unexpected argument: %s", fs.Arg(0))
	}
	if in.PolicyType == "" {
		return usagef("--type is required")
	}

	table, err := loadRules(rulesFile)
	if err != nil {
		return err
	}
	res, err := premium.New(table).Calculate(in)
	if err != nil {
		return err
	}

	if asJSON {
		return writeJSON(out, models.PremiumQuote{
			Input:          in,
			Result:         res,
			AnnualDisplay:  format.WholeRupees(res.AnnualPremium),
			MonthlyDisplay: format.WholeRupees(res.MonthlyPremium),
			RulesVersion:   table.Version,
		})
	}

	b := res.Breakdown
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Policy\t%s, %s cover, %d years\n", in.PolicyType, format.WholeRupees(in.SumAssured), in.PolicyTerm)
	fmt.Fprintf(tw, "Base premium\t%s\n", format.Rupees(b.BasePremiumBeforeFactors))
	fmt.Fprintf(tw, "Age factor\t%s\n", format.Decimal(b.AgeFactor, 2))
	fmt.Fprintf(tw, "Smoker factor\t%s\n", format.Decimal(b.SmokerFactor, 2))
	fmt.Fprintf(tw, "Occupation\t%s\n", format.Decimal(b.OccupationMultiplier, 2))
	fmt.Fprintf(tw, "Term factor\t%s\n", format.Decimal(b.TermFactor, 2))
	fmt.Fprintf(tw, "Add-ons factor\t%s\n", format.Decimal(b.AddonsFactor, 2))
	fmt.Fprintf(tw, "Annual premium\t%s\n", format.WholeRupees(res.AnnualPremium))
	fmt.Fprintf(tw, "Monthly premium\t%s\n", format.WholeRupees(res.MonthlyPremium))
	fmt.Fprintf(tw, "Rules\t%s\n", table.Version)
	return tw.Flush()
}

func runRecommend(args []string, out io.Writer) error {
	var (
		profileFile  string
		policiesFile string
		policyType   string
		rulesFile    string
		top          int
		asJSON       bool
	)
	fs := pflag.NewFlagSet("recommend", pflag.ContinueOnError)
	fs.StringVarP(&profileFile, "profile", "p", "", "profile file (JSON or JSONC)")
	fs.StringVar(&policiesFile, "policies", "", "policy list file (default: built-in catalog)")
	fs.StringVarP(&policyType, "type", "t", "", "only rank policies of this type")
	fs.StringVar(&rulesFile, "rules", "", "YAML rule table to use instead of the built-in one")
	fs.IntVarP(&top, "top", "n", 0, "print at most N recommendations (0 = all)")
	fs.BoolVar(&asJSON, "json", false, "print the result as JSON")
	if help, err := parseFlags(fs, args, out); help || err != nil {
		return err
	}
	if profileFile == "" {
		return usagef("--profile is required")
	}

	var profile models.UserProfile
	if err := readJSONC(profileFile, &profile); err != nil {
		return err
	}
	policies := catalog.SeedPolicies()
	if policiesFile != "" {
		policies = nil
		if err := readJSONC(policiesFile, &policies); err != nil {
			return err
		}
	}
	if policyType != "" {
		filtered := policies[:0:0]
		for _, p := range policies {
			if strings.EqualFold(p.Type, models.NormalizePolicyType(policyType)) {
				filtered = append(filtered, p)
			}
		}
		policies = filtered
	}

	table, err := loadRules(rulesFile)
	if err != nil {
		return err
	}
	result := matcher.New(table).Match(profile, policies)
	if top > 0 && len(result.Recommendations) > top {
		result.Recommendations = result.Recommendations[:top]
	}

	if asJSON {
		return writeJSON(out, result)
	}

	fmt.Fprintf(out, "%d of %d policies matched (rules %s)\n\n", result.Matched, result.Evaluated, result.RulesVersion)
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SCORE\tTYPE\tPOLICY\tPROVIDER\tPREMIUM")
	for _, r := range result.Recommendations {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", r.Score, r.Type, r.Name, r.Provider, format.WholeRupees(r.Premium))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	for _, r := range result.Recommendations {
		if r.Score == 0 {
			continue
		}
		fmt.Fprintf(out, "\n%s\n", r.Name)
		for _, reason := range r.Reasons {
			fmt.Fprintf(out, "  - %s\n", reason)
		}
		if r.SmokerAnalysis != "" {
			fmt.Fprintf(out, "  ! %s\n", r.SmokerAnalysis)
		}
	}
	return nil
}

func runCalc(args []string, out io.Writer) error {
	var asJSON bool
	fs := pflag.NewFlagSet("calc", pflag.ContinueOnError)
	fs.BoolVar(&asJSON, "json", false, "print the result as JSON")
	if help, err := parseFlags(fs, args, out); help || err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return usagef("calc needs a calculator id; see \"insurez calculators\"")
	}

	id := fs.Arg(0)
	values, err := parseValues(fs.Args()[1:])
	if err != nil {
		return err
	}
	res, err := calculators.Compute(id, values)
	if err != nil {
		return err
	}
	if asJSON {
		return writeJSON(out, res)
	}
	fmt.Fprintln(out, res.Display)
	return nil
}

// parseValues turns key=value arguments into calculator inputs.
func parseValues(args []string) (calculators.Values, error) {
	v := calculators.Values{}
	for _, arg := range args {
		key, raw, ok := strings.Cut(arg, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, usagef("expected key=value, got %q", arg)
		}
		raw = strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
		x, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, usagef("%s: %q is not a number", key, raw)
		}
		v[key] = x
	}
	return v, nil
}

func runCalculators(args []string, out io.Writer) error {
	var category string
	var asJSON bool
	fs := pflag.NewFlagSet("calculators", pflag.ContinueOnError)
	fs.StringVarP(&category, "category", "c", "", "only list this category")
	fs.BoolVar(&asJSON, "json", false, "print the list as JSON")
	if help, err := parseFlags(fs, args, out); help || err != nil {
		return err
	}

	var list []*calculators.Calculator
	for _, c := range calculators.List() {
		if category == "" || strings.EqualFold(c.Category, category) {
			list = append(list, c)
		}
	}
	if asJSON {
		return writeJSON(out, list)
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCATEGORY\tTITLE\tINPUTS")
	for _, c := range list {
		keys := make([]string, len(c.Inputs))
		for i, in := range c.Inputs {
			keys[i] = in.Key
		}
		sort.Strings(keys)
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.ID, c.Category, c.Title, strings.Join(keys, " "))
	}
	return tw.Flush()
}

// readJSONC decodes a JSON file that may carry comments and trailing commas.
func readJSONC(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if err := json.Unmarshal(jsonc.ToJSON(data), v); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

func writeJSON(out io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "%s\n", data)
	return err
}
