// Package demo wires a small retail domain (store, orders, line items) into
// the router so the CLI and integration tests can exercise the full dispatch
// pipeline without a host application.
package demo

import (
	"context"
	"fmt"
	"sort"

	"github.com/iambrandonn/converse/internal/catalog"
	"github.com/iambrandonn/converse/internal/contexts"
	"github.com/iambrandonn/converse/internal/engine"
	"github.com/iambrandonn/converse/internal/workflow"
)

// Object is a live demo instance: a store, an order, or a line item.
type Object struct {
	Kind   string
	ID     string
	Parent *Object
	Status string

	children []*Object
}

// TypeName implements catalog.Instance.
func (o *Object) TypeName() string { return o.Kind }

// Domain holds the demo object graph.
type Domain struct {
	Store *Object
}

// NewDomain builds the fixed store -> orders -> line items graph.
func NewDomain() *Domain {
	store := &Object{Kind: "Store", ID: "store-main", Status: "open"}
	for _, orderID := range []string{"A-1001", "A-1002"} {
		order := &Object{Kind: "Order", ID: orderID, Parent: store, Status: "placed"}
		for i := 1; i <= 2; i++ {
			item := &Object{Kind: "LineItem", ID: fmt.Sprintf("%s/%d", orderID, i), Parent: order, Status: "reserved"}
			order.children = append(order.children, item)
		}
		store.children = append(store.children, order)
	}
	return &Domain{Store: store}
}

// Order returns an order by ID.
func (d *Domain) Order(id string) *Object {
	for _, order := range d.Store.children {
		if order.ID == id {
			return order
		}
	}
	return nil
}

// Workflow returns the demo workflow source.
func (d *Domain) Workflow() workflow.Source {
	return workflow.Source{
		Origin: "demo",
		Root:   "Store",
		Types: []contexts.Type{
			{Name: "Store", OwnCommands: []string{"store.list_orders", "store.open_order"}},
			// Cancellable is an abstract base; Order picks up orders.cancel
			// through it.
			{Name: "Cancellable", OwnCommands: []string{"orders.cancel"}},
			{Name: "Order", OwnCommands: []string{"orders.status"}, Bases: []string{"Cancellable"}},
			{Name: "LineItem", OwnCommands: []string{"items.remove"}},
		},
		Commands: []catalog.Descriptor{
			{
				QualifiedName: "store.list_orders",
				OwningContext: "Store",
				Description:   "List the orders in the store.",
				Handler:       "demo.list_orders",
				Examples:      []string{"show my orders", "list all orders", "what orders do i have"},
			},
			{
				QualifiedName: "store.open_order",
				OwningContext: "Store",
				Description:   "Open an order and make it the current context.",
				Handler:       "demo.open_order",
				Examples:      []string{"open the order", "open order order=A-1001", "look at an order"},
				Schema: catalog.InputSchema{
					"order": {Type: catalog.FieldTypeString},
				},
			},
			{
				QualifiedName: "orders.cancel",
				OwningContext: "Cancellable",
				Description:   "Cancel the current order.",
				Handler:       "demo.cancel_order",
				Examples: []string{
					"cancel my order",
					"cancel the order",
					"i want to cancel",
					`cancel my order reason="damaged"`,
				},
				Schema: catalog.InputSchema{
					"reason": {Type: catalog.FieldTypeString, Required: true, Pattern: `^[\w][\w ,.!-]*$`},
				},
			},
			{
				QualifiedName: "orders.status",
				OwningContext: "Order",
				Description:   "Report the current order's status.",
				Handler:       "demo.order_status",
				Examples:      []string{"what is the order status", "order status", "how is my order doing"},
			},
			{
				QualifiedName: "items.remove",
				OwningContext: "LineItem",
				Description:   "Remove the current line item from its order.",
				Handler:       "demo.remove_item",
				Examples:      []string{"remove this item", "delete the line item", "take this item off"},
			},
		},
	}
}

// Register binds the demo handlers into the table.
func (d *Domain) Register(table *catalog.HandlerTable) {
	table.RegisterFunc("demo.list_orders", func(ctx context.Context, instance catalog.Instance, params map[string]any) (*catalog.Outcome, error) {
		ids := make([]string, 0, len(d.Store.children))
		for _, order := range d.Store.children {
			ids = append(ids, order.ID)
		}
		sort.Strings(ids)
		return &catalog.Outcome{Output: map[string]any{"orders": ids}}, nil
	})

	table.RegisterFunc("demo.open_order", func(ctx context.Context, instance catalog.Instance, params map[string]any) (*catalog.Outcome, error) {
		id, _ := params["order"].(string)
		var order *Object
		if id != "" {
			order = d.Order(id)
			if order == nil {
				return nil, fmt.Errorf("demo: no such order %s", id)
			}
		} else if len(d.Store.children) > 0 {
			order = d.Store.children[0]
		}
		if order == nil {
			return nil, fmt.Errorf("demo: store has no orders")
		}
		return &catalog.Outcome{
			Output:     map[string]any{"order": order.ID, "status": order.Status},
			NewContext: order,
		}, nil
	})

	table.RegisterFunc("demo.cancel_order", func(ctx context.Context, instance catalog.Instance, params map[string]any) (*catalog.Outcome, error) {
		order, ok := instance.(*Object)
		if !ok || order.Kind != "Order" {
			return nil, fmt.Errorf("demo: cancel_order requires an Order context")
		}
		order.Status = "cancelled"
		reason, _ := params["reason"].(string)
		return &catalog.Outcome{Output: map[string]any{"order": order.ID, "status": order.Status, "reason": reason}}, nil
	})

	table.RegisterFunc("demo.order_status", func(ctx context.Context, instance catalog.Instance, params map[string]any) (*catalog.Outcome, error) {
		order, ok := instance.(*Object)
		if !ok || order.Kind != "Order" {
			return nil, fmt.Errorf("demo: order_status requires an Order context")
		}
		return &catalog.Outcome{Output: map[string]any{"order": order.ID, "status": order.Status, "items": len(order.children)}}, nil
	})

	table.RegisterFunc("demo.remove_item", func(ctx context.Context, instance catalog.Instance, params map[string]any) (*catalog.Outcome, error) {
		item, ok := instance.(*Object)
		if !ok || item.Kind != "LineItem" {
			return nil, fmt.Errorf("demo: remove_item requires a LineItem context")
		}
		item.Status = "removed"
		// Removing the item orphans it, so move the conversation up.
		return &catalog.Outcome{
			Output:     map[string]any{"item": item.ID, "status": item.Status},
			NewContext: item.Parent,
		}, nil
	})
}

// Wire registers the parent callbacks for the demo types.
func (d *Domain) Wire(nav *engine.Navigator) {
	parent := func(instance catalog.Instance) catalog.Instance {
		obj, ok := instance.(*Object)
		if !ok || obj.Parent == nil {
			return nil
		}
		return obj.Parent
	}
	nav.Register("Order", parent)
	nav.Register("LineItem", parent)
}
