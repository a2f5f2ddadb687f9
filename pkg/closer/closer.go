// Package closer собирает функции освобождения ресурсов приложения
// и закрывает их в порядке, обратном регистрации.
package closer

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Func — сигнатура функции закрытия ресурса.
type Func func(ctx context.Context) error

// Closer обеспечивает потокобезопасное однократное закрытие ресурсов.
// Если контекст Close истекает раньше, чем ресурсы успели закрыться,
// оставшиеся функции добиваются параллельно с собственным таймаутом.
type Closer struct {
	mu            sync.Mutex
	once          sync.Once
	funcs         []Func
	forcedTimeout time.Duration
}

// NewCloser создает Closer. forcedTimeout — время на принудительное
// закрытие ресурсов, не успевших закрыться до отмены контекста.
func NewCloser(forcedTimeout time.Duration) *Closer {
	const defaultForcedTimeout = 2 * time.Second

	if forcedTimeout <= 0 {
		forcedTimeout = defaultForcedTimeout
	}

	return &Closer{forcedTimeout: forcedTimeout}
}

// Add регистрирует функцию закрытия.
func (c *Closer) Add(f Func) {
	c.mu.Lock()
	c.funcs = append(c.funcs, f)
	c.mu.Unlock()
}

// Close закрывает зарегистрированные ресурсы в порядке LIFO.
// Повторные вызовы не имеют эффекта.
func (c *Closer) Close(ctx context.Context) error {
	var err error
	c.once.Do(func() {
		c.mu.Lock()
		funcs := c.funcs
		c.mu.Unlock()

		var msgs []string
		for i := len(funcs) - 1; i >= 0; i-- {
			done := make(chan error, 1)
			go func(f Func) {
				done <- f(ctx)
			}(funcs[i])

			select {
			case ferr := <-done:
				if ferr != nil {
					msgs = append(msgs, ferr.Error())
				}
			case <-ctx.Done():
				// Контекст истёк, добиваем остаток принудительно
				msgs = append(msgs, c.forcedClose(funcs[:i+1])...)
				err = fmt.Errorf("shutdown interrupted:\n%s", strings.Join(msgs, "\n"))
				return
			}
		}

		if len(msgs) > 0 {
			err = fmt.Errorf("shutdown finished with error(s):\n%s", strings.Join(msgs, "\n"))
		}
	})

	return err
}

// forcedClose параллельно запускает оставшиеся функции с собственным таймаутом.
func (c *Closer) forcedClose(funcs []Func) []string {
	ctx, cancel := context.WithTimeout(context.Background(), c.forcedTimeout)
	defer cancel()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		msgs []string
	)

	for _, f := range funcs {
		wg.Add(1)
		go func(f Func) {
			defer wg.Done()
			if err := f(ctx); err != nil {
				mu.Lock()
				msgs = append(msgs, "[forced] "+err.Error())
				mu.Unlock()
			}
		}(f)
	}

	wg.Wait()
	return msgs
}
