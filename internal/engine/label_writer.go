package engine

import (
	"bytes"
	"io"
	"sync"
)

const (
	labelOpeningConstant = "["
	labelClosingConstant = "] "
)

// labelWriter prefixes every forwarded output line with the owning target's
// name. Complete lines are emitted as single writes so concurrently running
// targets never interleave within a line.
type labelWriter struct {
	destination io.Writer
	label       []byte
	pending     bytes.Buffer
}

func newLabelWriter(destination io.Writer, targetName string) *labelWriter {
	label := append([]byte(labelOpeningConstant), targetName...)
	label = append(label, labelClosingConstant...)
	return &labelWriter{destination: destination, label: label}
}

func (writer *labelWriter) Write(data []byte) (int, error) {
	total := len(data)
	for len(data) > 0 {
		newlineIndex := bytes.IndexByte(data, '\n')
		if newlineIndex < 0 {
			writer.pending.Write(data)
			break
		}
		line := make([]byte, 0, len(writer.label)+writer.pending.Len()+newlineIndex+1)
		line = append(line, writer.label...)
		line = append(line, writer.pending.Bytes()...)
		line = append(line, data[:newlineIndex+1]...)
		if _, writeError := writer.destination.Write(line); writeError != nil {
			return total - len(data), writeError
		}
		writer.pending.Reset()
		data = data[newlineIndex+1:]
	}
	return total, nil
}

// Flush emits any unterminated trailing line with the label and a newline.
func (writer *labelWriter) Flush() error {
	if writer.pending.Len() == 0 {
		return nil
	}
	line := make([]byte, 0, len(writer.label)+writer.pending.Len()+1)
	line = append(line, writer.label...)
	line = append(line, writer.pending.Bytes()...)
	line = append(line, '\n')
	if _, writeError := writer.destination.Write(line); writeError != nil {
		return writeError
	}
	writer.pending.Reset()
	return nil
}

// lockedWriter serializes writes from concurrently executing targets onto a
// shared destination.
type lockedWriter struct {
	mutex       *sync.Mutex
	destination io.Writer
}

func (writer lockedWriter) Write(data []byte) (int, error) {
	writer.mutex.Lock()
	defer writer.mutex.Unlock()
	return writer.destination.Write(data)
}
