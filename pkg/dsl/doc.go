/*
Package dsl builds story configurations in Go instead of YAML documents.

States and actions are declared in order; an action declares the leaf state of
the same name. Build checks the result with the story compiler.

	b := dsl.New("greet").MainIntent("hello")
	global := b.State("Global").On("hello", "#HELLO")
	global.Action("HELLO").Answer("Hello").Outputs("GREETED")
	global.Action("BYE").Answer("Bye").Inputs("GREETED").Final()
	b.Context("GREETED")

	cfg, err := b.Build()
*/
package dsl
