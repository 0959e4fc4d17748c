// Command client exercises a running TodoService: it lists, creates, updates
// and deletes a todo and prints every response.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	todov1 "github.com/Tomlord1122/todo-grpc/api/todo/v1"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	mutedStyle   = lipgloss.NewStyle().Faint(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	panelStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("8")).
			Padding(0, 1)
)

func main() {
	addr := flag.String("addr", "127.0.0.1:50051", "TodoService address")
	timeout := flag.Duration("timeout", 5*time.Second, "per-call timeout")
	flag.Parse()

	fmt.Println(titleStyle.Render("Connecting to TodoService at " + *addr))
	conn, err := grpc.NewClient(*addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		fail("connect: " + err.Error())
		os.Exit(1)
	}
	defer conn.Close()

	c := &demo{client: todov1.NewTodoServiceClient(conn), timeout: *timeout}

	c.step("Getting all todos", c.list)
	created := c.create()
	c.step("Getting all todos after create", c.list)
	if created != nil {
		c.step("Updating todo "+created.Id, func(ctx context.Context) error { return c.update(ctx, created.Id) })
		c.step("Deleting todo "+created.Id, func(ctx context.Context) error { return c.delete(ctx, created.Id) })
	}
	c.step("Getting all todos after delete", c.list)
}

type demo struct {
	client  todov1.TodoServiceClient
	timeout time.Duration
}

// step runs fn with a fresh deadline; a failing step is reported and the demo
// moves on.
func (d *demo) step(name string, fn func(ctx context.Context) error) {
	fmt.Println()
	fmt.Println(titleStyle.Render(name))
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()
	if err := fn(ctx); err != nil {
		st := status.Convert(err)
		fail(fmt.Sprintf("%s: %s", st.Code(), st.Message()))
	}
}

func (d *demo) list(ctx context.Context) error {
	resp, err := d.client.GetTodos(ctx, &todov1.GetTodosRequest{})
	if err != nil {
		return err
	}
	ok(fmt.Sprintf("%d todos", len(resp.GetTodos())))
	if len(resp.GetTodos()) == 0 {
		return nil
	}
	lines := make([]string, 0, len(resp.GetTodos()))
	for _, t := range resp.GetTodos() {
		lines = append(lines, render(t))
	}
	fmt.Println(panelStyle.Render(strings.Join(lines, "\n")))
	return nil
}

func (d *demo) create() *todov1.Todo {
	var created *todov1.Todo
	d.step("Creating a new todo", func(ctx context.Context) error {
		todo, err := d.client.CreateTodo(ctx, &todov1.CreateTodoRequest{
			Title:       "Test Todo from Client",
			Description: "This is a test todo created by the gRPC client",
		})
		if err != nil {
			return err
		}
		ok("created")
		fmt.Println(panelStyle.Render(render(todo)))
		created = todo
		return nil
	})
	return created
}

func (d *demo) update(ctx context.Context, id string) error {
	todo, err := d.client.UpdateTodo(ctx, &todov1.UpdateTodoRequest{
		Id:          id,
		Title:       "Updated Todo Title",
		Description: "This todo has been updated",
		Completed:   true,
	})
	if err != nil {
		return err
	}
	ok("updated")
	fmt.Println(panelStyle.Render(render(todo)))
	return nil
}

func (d *demo) delete(ctx context.Context, id string) error {
	resp, err := d.client.DeleteTodo(ctx, &todov1.DeleteTodoRequest{Id: id})
	if err != nil {
		return err
	}
	if resp.GetSuccess() {
		ok("deleted")
	} else {
		fmt.Println(pendingStyle.Render("• nothing to delete"))
	}
	return nil
}

func render(t *todov1.Todo) string {
	box, style := "☐", pendingStyle
	if t.GetCompleted() {
		box, style = "☑", successStyle
	}
	line := style.Render(box) + " " + mutedStyle.Render("#"+t.GetId()) + " " + t.GetTitle()
	if t.GetDescription() != "" {
		line += "\n    " + mutedStyle.Render(t.GetDescription())
	}
	return line
}

func ok(msg string) {
	fmt.Println(successStyle.Render("✔ " + msg))
}

func fail(msg string) {
	fmt.Fprintln(os.Stderr, errorStyle.Render("✖ "+msg))
}
