package di_test

import (
	"errors"
	"fmt"

	"github.com/gocrud/feather/di"
)

type Greeter struct {
	greeting string
}

func NewGreeter(p struct {
	di.In
	Greeting string `inject:"greeting"`
}) *Greeter {
	return &Greeter{greeting: p.Greeting}
}

func (g *Greeter) Greet(name string) string {
	return g.greeting + ", " + name
}

type GreetingModule struct{}

func (GreetingModule) ProvideGreeting() string { return "hello" }

func (GreetingModule) Annotate() di.Annotations {
	return di.Annotations{"ProvideGreeting": {di.WithName("greeting")}}
}

func Example() {
	inj, err := di.New(GreetingModule{}, di.Constructors(NewGreeter))
	if err != nil {
		panic(err)
	}

	greeter := di.MustGet[*Greeter](inj)
	fmt.Println(greeter.Greet("feather"))
	// Output: hello, feather
}

// FrenchModule 覆盖 GreetingModule 的问候语
type FrenchModule struct {
	GreetingModule
}

func (FrenchModule) ProvideGreeting() string { return "bonjour" }

func Example_override() {
	inj, _ := di.New(FrenchModule{}, di.Constructors(NewGreeter))
	fmt.Println(di.MustGet[*Greeter](inj).Greet("feather"))
	// Output: bonjour, feather
}

type Node struct {
	Next di.Provider[*Node]
}

func NewNode(next di.Provider[*Node]) *Node {
	return &Node{Next: next}
}

type Chain struct {
	Head *Head
}

type Head struct {
	Chain *Chain
}

func Example_cycle() {
	inj, _ := di.New(di.Constructors(
		func(h *Head) *Chain { return &Chain{Head: h} },
		func(c *Chain) *Head { return &Head{Chain: c} },
		NewNode,
	))

	_, err := di.Get[*Chain](inj)
	var cycle *di.CircularDependencyError
	fmt.Println(errors.As(err, &cycle), len(cycle.Chain))

	// 延迟句柄不参与循环检查
	node := di.MustGet[*Node](inj)
	next, err := node.Next.Get()
	fmt.Println(next != nil, next != node, err)
	// Output:
	// true 3
	// true true <nil>
}
