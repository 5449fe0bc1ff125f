package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/coupon/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/coupon/internal/core/domain"
)

var couponsCmd = &cobra.Command{
	Use:     "coupons",
	Aliases: []string{"coupon"},
	Short:   "Manage coupon policies",
}

var couponsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a coupon policy",
	Long: `Create a first-come-first-served coupon policy.

The issue window is given in RFC 3339, e.g. 2026-10-19T10:00:00+09:00.
Omit --total for an unlimited coupon.`,
	Example: `  coupon coupons create --title "Opening sale" --total 500 \
    --discount 100000 --min-amount 110000 \
    --start 2026-10-19T10:00:00+09:00 --end 2026-10-26T10:00:00+09:00`,
	RunE: runCouponsCreate,
}

var couponsGetCmd = &cobra.Command{
	Use:   "get [coupon-id]",
	Short: "Show a coupon policy",
	Args:  cobra.ExactArgs(1),
	RunE:  runCouponsGet,
}

var couponsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List coupon policies",
	RunE:  runCouponsList,
}

// Flags for coupons create and output format.
var (
	couponTitle     string
	couponType      string
	couponTotal     int
	couponDiscount  int
	couponMinAmount int
	couponStart     string
	couponEnd       string
	couponsJSON     bool
)

func init() {
	f := couponsCreateCmd.Flags()
	f.StringVar(&couponTitle, "title", "", "coupon title (required)")
	f.StringVar(&couponType, "type", string(domain.CouponTypeFirstComeFirstServed), "coupon type")
	f.IntVar(&couponTotal, "total", -1, "total quantity, -1 for unlimited")
	f.IntVar(&couponDiscount, "discount", 0, "discount amount")
	f.IntVar(&couponMinAmount, "min-amount", 0, "minimum order amount")
	f.StringVar(&couponStart, "start", "", "issue window start, RFC 3339 (required)")
	f.StringVar(&couponEnd, "end", "", "issue window end, RFC 3339 (required)")

	couponsCmd.PersistentFlags().BoolVar(&couponsJSON, "json", false, "print JSON")

	couponsCmd.AddCommand(couponsCreateCmd)
	couponsCmd.AddCommand(couponsGetCmd)
	couponsCmd.AddCommand(couponsListCmd)
	rootCmd.AddCommand(couponsCmd)
}

func runCouponsCreate(cmd *cobra.Command, _ []string) error {
	if couponService == nil {
		return errors.New("coupon service not configured")
	}

	start, err := parseWindowTime("start", couponStart)
	if err != nil {
		return err
	}
	end, err := parseWindowTime("end", couponEnd)
	if err != nil {
		return err
	}

	coupon := domain.Coupon{
		Title:              couponTitle,
		CouponType:         domain.CouponType(couponType),
		DiscountAmount:     couponDiscount,
		MinAvailableAmount: couponMinAmount,
		DateIssueStart:     start,
		DateIssueEnd:       end,
	}
	if couponTotal >= 0 {
		coupon.TotalQuantity = domain.IntPtr(couponTotal)
	}

	created, err := couponService.Create(commandContext(cmd), coupon)
	if err != nil {
		return fmt.Errorf("failed to create coupon: %w", err)
	}

	if couponsJSON {
		return printJSON(cmd, httpapi.NewCouponResponse(created))
	}
	cmd.Printf("Created coupon %d: %s\n", created.ID, created.Title)
	return nil
}

func runCouponsGet(cmd *cobra.Command, args []string) error {
	if couponService == nil {
		return errors.New("coupon service not configured")
	}

	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("%w: coupon id %q", domain.ErrInvalidInput, args[0])
	}

	coupon, err := couponService.Get(commandContext(cmd), id)
	if err != nil {
		return err
	}

	if couponsJSON {
		return printJSON(cmd, httpapi.NewCouponResponse(coupon))
	}
	cmd.Printf("ID:          %d\n", coupon.ID)
	cmd.Printf("Title:       %s\n", coupon.Title)
	cmd.Printf("Type:        %s\n", coupon.CouponType)
	cmd.Printf("Issued:      %s\n", formatIssued(coupon))
	cmd.Printf("Discount:    %d (min order %d)\n", coupon.DiscountAmount, coupon.MinAvailableAmount)
	cmd.Printf("Issue start: %s\n", coupon.DateIssueStart.Format(time.RFC3339))
	cmd.Printf("Issue end:   %s\n", coupon.DateIssueEnd.Format(time.RFC3339))
	if coupon.IsIssueComplete(time.Now()) {
		cmd.Println("Status:      issue complete")
	} else {
		cmd.Println("Status:      issuing")
	}
	return nil
}

func runCouponsList(cmd *cobra.Command, _ []string) error {
	if couponService == nil {
		return errors.New("coupon service not configured")
	}

	coupons, err := couponService.List(commandContext(cmd))
	if err != nil {
		return fmt.Errorf("failed to list coupons: %w", err)
	}

	if couponsJSON {
		out := make([]httpapi.CouponResponse, 0, len(coupons))
		for i := range coupons {
			out = append(out, httpapi.NewCouponResponse(&coupons[i]))
		}
		return printJSON(cmd, out)
	}
	if len(coupons) == 0 {
		cmd.Println("No coupons found.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tISSUED\tWINDOW")
	for i := range coupons {
		c := &coupons[i]
		fmt.Fprintf(w, "%d\t%s\t%s\t%s - %s\n", c.ID, c.Title, formatIssued(c),
			c.DateIssueStart.Format(time.RFC3339), c.DateIssueEnd.Format(time.RFC3339))
	}
	return w.Flush()
}

func parseWindowTime(flag, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("%w: --%s is required", domain.ErrInvalidInput, flag)
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: --%s: %v", domain.ErrInvalidInput, flag, err)
	}
	return t, nil
}

// formatIssued renders issued/total, e.g. "3/500" or "3/unlimited".
func formatIssued(c *domain.Coupon) string {
	if c.TotalQuantity == nil {
		return fmt.Sprintf("%d/unlimited", c.IssuedQuantity)
	}
	return fmt.Sprintf("%d/%d", c.IssuedQuantity, *c.TotalQuantity)
}

// printJSON writes v indented, in the same shape the HTTP API returns.
func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
