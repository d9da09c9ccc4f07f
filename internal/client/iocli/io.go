// Package iocli абстрагирует терминальный ввод-вывод команд CLI.
package iocli

// IO покрывает весь ввод-вывод команд: печать, чтение строк
// и скрытый ввод passphrase.
type IO interface {
	Println(a ...any)
	Printf(format string, a ...any)
	ReadInput(prompt string) (string, error)
	ReadPassword(prompt string) (string, error)
	Write(p []byte) (n int, err error)
}
