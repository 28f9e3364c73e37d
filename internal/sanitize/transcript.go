package sanitize

import "fmt"

const completeLine = "Processing complete."

func processingLine(name string) string {
	return fmt.Sprintf("Processing %s...", name)
}

func savedLine(path string) string {
	return "Saved: " + path
}

func errorLine(name string, err error) string {
	return fmt.Sprintf("Error processing %s: %s", name, err.Error())
}

func unexpectedLine(err error) string {
	return "Unexpected error: " + err.Error()
}

// collector serialises status lines from concurrent jobs. Lines are stored
// and forwarded in arrival order by a single goroutine.
type collector struct {
	ch     chan string
	done   chan struct{}
	lines  []string
	onLine func(string)
}

func newCollector(onLine func(string)) *collector {
	c := &collector{
		ch:     make(chan string, 16),
		done:   make(chan struct{}),
		onLine: onLine,
	}
	go func() {
		defer close(c.done)
		for line := range c.ch {
			c.lines = append(c.lines, line)
			if c.onLine != nil {
				c.onLine(line)
			}
		}
	}()
	return c
}

func (c *collector) emit(line string) {
	c.ch <- line
}

// close drains pending lines and returns the full transcript. emit must not
// be called afterwards.
func (c *collector) close() []string {
	close(c.ch)
	<-c.done
	return c.lines
}
