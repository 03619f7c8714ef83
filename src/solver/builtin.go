package solver

import (
	"encoding/json"
	"fmt"
)

// SecretFileName is the file find_file looks for.
const SecretFileName = "secret_intel.dat"

type builtin struct {
	puzzleType string
	solve      Func
	schema     string
}

var builtins = []builtin{
	{puzzleType: "decrypt_cipher", solve: solveDecryptCipher, schema: decryptCipherSchema},
	{puzzleType: "find_file", solve: solveFindFile, schema: findFileSchema},
	{puzzleType: "add_even_numbers", solve: solveAddEvenNumbers, schema: addEvenNumbersSchema},
}

const decryptCipherSchema = `{
  "type": "object",
  "required": ["encrypted_message", "shift_key"],
  "properties": {
    "encrypted_message": {"type": "string"},
    "shift_key": {"type": "integer"}
  }
}`

const findFileSchema = `{
  "$ref": "#/$defs/node",
  "$defs": {
    "node": {
      "type": "object",
      "required": ["type"],
      "properties": {
        "type": {"type": "string"},
        "name": {"type": "string"},
        "children": {
          "type": ["array", "null"],
          "items": {"$ref": "#/$defs/node"}
        }
      }
    }
  }
}`

const addEvenNumbersSchema = `{
  "type": "array",
  "items": {"type": "integer"}
}`

// CipherPayload is the decrypt_cipher payload.
type CipherPayload struct {
	EncryptedMessage string `json:"encrypted_message"`
	ShiftKey         int64  `json:"shift_key"`
}

// Node is one entry of a find_file tree.
type Node struct {
	Type     string `json:"type"`
	Name     string `json:"name"`
	Children []Node `json:"children,omitempty"`
}

func solveDecryptCipher(payload json.RawMessage) (any, error) {
	var p CipherPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("%w: decrypt_cipher: %v", ErrInvalidPayload, err)
	}
	return DecryptCipher(p.EncryptedMessage, p.ShiftKey), nil
}

func solveFindFile(payload json.RawMessage) (any, error) {
	var root Node
	if err := json.Unmarshal(payload, &root); err != nil {
		return nil, fmt.Errorf("%w: find_file: %v", ErrInvalidPayload, err)
	}
	path, ok := FindFile(root, SecretFileName)
	if !ok {
		return nil, nil
	}
	return path, nil
}

func solveAddEvenNumbers(payload json.RawMessage) (any, error) {
	var numbers []int64
	if err := json.Unmarshal(payload, &numbers); err != nil {
		return nil, fmt.Errorf("%w: add_even_numbers: %v", ErrInvalidPayload, err)
	}
	return AddEvenNumbers(numbers), nil
}

// DecryptCipher undoes the server's Caesar shift. The key arrives positive but
// was applied in the opposite direction, so the effective shift is -|key|.
// Only 'a'..'z' move; every other byte is copied unchanged.
func DecryptCipher(message string, shiftKey int64) string {
	k := shiftKey % 26
	if k < 0 {
		k = -k
	}
	shift := -k

	out := []byte(message)
	for i, c := range out {
		if c >= 'a' && c <= 'z' {
			out[i] = byte((int64(c)-'a'-shift+26)%26) + 'a'
		}
	}
	return string(out)
}

// FindFile searches depth-first, children in order, for a file called name and
// returns its slash-joined path starting with the root's name.
func FindFile(root Node, name string) (string, bool) {
	return findFile(&root, name, "")
}

func findFile(node *Node, name, parent string) (string, bool) {
	path := node.Name
	if parent != "" {
		path = parent + "/" + node.Name
	}
	if node.Type == "file" && node.Name == name {
		return path, true
	}
	if node.Type == "folder" {
		for i := range node.Children {
			if found, ok := findFile(&node.Children[i], name, path); ok {
				return found, true
			}
		}
	}
	return "", false
}

// AddEvenNumbers sums the even elements of numbers.
func AddEvenNumbers(numbers []int64) int64 {
	var sum int64
	for _, n := range numbers {
		if n%2 == 0 {
			sum += n
		}
	}
	return sum
}
