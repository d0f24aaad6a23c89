package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dmitrijs2005/cinepos/internal/models"
)

func newTable(out io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
}

func printSeats(out io.Writer, seats []models.Seat) {
	if len(seats) == 0 {
		fmt.Fprintln(out, "No seats.")
		return
	}
	tw := newTable(out)
	fmt.Fprintln(tw, "SEAT\tSTATUS\tOCCUPANCY\tKIND\tPRICE")
	for _, s := range seats {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", s.ID, s.Status, s.Occupancy, s.Kind, s.Kind.Price().StringFixed(2))
	}
	tw.Flush()
}

func printProducts(out io.Writer, products []models.Product) {
	if len(products) == 0 {
		fmt.Fprintln(out, "No products.")
		return
	}
	tw := newTable(out)
	fmt.Fprintln(tw, "ID\tNAME\tKIND\tPRICE\tSTOCK")
	for _, p := range products {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n", p.ID, p.Name, p.Kind, p.Price.StringFixed(2), p.Stock)
	}
	tw.Flush()
}

func printSales(out io.Writer, sales []models.Sale) {
	if len(sales) == 0 {
		fmt.Fprintln(out, "No sales.")
		return
	}
	tw := newTable(out)
	fmt.Fprintln(tw, "SALE\tDATE\tACCOUNT\tSEAT\tLINES\tTOTAL")
	for _, s := range sales {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n",
			s.ID, s.CreatedAt.Local().Format("2006/01/02 15:04"), s.Account.ID, s.Seat.ID, len(s.Lines), s.Total().StringFixed(2))
	}
	tw.Flush()
}

func printSale(out io.Writer, sale models.Sale) {
	fmt.Fprintf(out, "Sale %s: account %s, seat %s (%s) %s €\n",
		sale.ID, sale.Account.ID, sale.Seat.ID, sale.Seat.Kind, sale.Seat.Kind.Price().StringFixed(2))
	if len(sale.Lines) == 0 {
		fmt.Fprintln(out, "  no products")
	}
	for _, l := range sale.Lines {
		fmt.Fprintf(out, "  %s %s € x %d = %s €\n", l.Product.Name, l.UnitPrice.StringFixed(2), l.Quantity, l.Total().StringFixed(2))
	}
	fmt.Fprintf(out, "Total: %s €\n", sale.Total().StringFixed(2))
}
