package pdf

import (
	"context"
	"strconv"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

// OrderSheet is a pre-formatted order ready for printing. Money values are
// already rendered as strings.
type OrderSheet struct {
	ShopName    string
	OrderNumber string
	PlacedAt    string
	Status      string

	ContactName string
	CompanyName string
	Email       string
	Phone       string
	Document    string
	Address     string

	Items   []OrderSheetItem
	Total   string
	Message string
}

type OrderSheetItem struct {
	Name      string
	Qty       int
	UnitPrice string
	Amount    string
}

type MarotoProvider struct{}

func New() Provider {
	return &MarotoProvider{}
}

func (p *MarotoProvider) OrderSheet(ctx context.Context, sheet OrderSheet) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Página {current} de {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(14,
		text.NewCol(8, sheet.ShopName, props.Text{
			Size:  18,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
		text.NewCol(4, "Pedido #"+sheet.OrderNumber, props.Text{
			Size:  12,
			Style: fontstyle.Bold,
			Align: align.Right,
		}),
	)

	m.AddRow(12,
		col.New(6).Add(
			text.New("Data: "+sheet.PlacedAt, props.Text{Top: 0}),
			text.New("Situação: "+sheet.Status, props.Text{Top: 4}),
		),
		col.New(6),
	)

	m.AddRow(30,
		col.New(6).Add(
			text.New("Cliente", props.Text{Style: fontstyle.Bold}),
			text.New(sheet.ContactName, props.Text{Top: 5}),
			text.New(sheet.CompanyName, props.Text{Top: 9}),
			text.New(sheet.Document, props.Text{Top: 13}),
		),
		col.New(6).Add(
			text.New("Contato", props.Text{Style: fontstyle.Bold}),
			text.New(sheet.Email, props.Text{Top: 5}),
			text.New(sheet.Phone, props.Text{Top: 9}),
			text.New(sheet.Address, props.Text{Top: 13}),
		),
	)

	m.AddRow(10,
		text.NewCol(6, "Produto", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Qtd", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Unitário", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Total", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)
	m.AddRow(2, line.NewCol(12))

	for _, item := range sheet.Items {
		m.AddRow(8,
			text.NewCol(6, item.Name, props.Text{Size: 9}),
			text.NewCol(2, strconv.Itoa(item.Qty), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, item.UnitPrice, props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, item.Amount, props.Text{Size: 9, Align: align.Right}),
		)
	}

	m.AddRow(2, line.NewCol(12))
	m.AddRow(10,
		col.New(8),
		text.NewCol(2, "Total", props.Text{Style: fontstyle.Bold, Size: 10}),
		text.NewCol(2, sheet.Total, props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Right}),
	)

	if sheet.Message != "" {
		m.AddRow(20,
			col.New(12).Add(
				text.New("Observações", props.Text{Style: fontstyle.Bold, Top: 4}),
				text.New(sheet.Message, props.Text{Size: 9, Top: 9}),
			),
		)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return doc.GetBytes(), nil
}
