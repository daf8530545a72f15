package sqlstore

import "fmt"

func wrap(op string, err error) error {
	return fmt.Errorf("consistency sqlstore: %s failed: %w", op, err)
}

func wrapCategory(op string, category, err error) error {
	return fmt.Errorf("consistency sqlstore: %s failed: %w: %w", op, category, err)
}
