package main

import (
	"github.com/joho/godotenv"

	"github.com/hcollier/todo-api/cmd/cli/auth"
	"github.com/hcollier/todo-api/cmd/cli/root"
	"github.com/hcollier/todo-api/cmd/cli/todos"
)

func main() {
	_ = godotenv.Load()

	auth.InitAuth(root.GetRoot())
	todos.InitTodos(root.GetRoot())

	root.Execute()
}
