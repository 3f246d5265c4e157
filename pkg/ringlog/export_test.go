package ringlog_test

import "os"

// corruptMagic flips the first byte of the ring file's magic, simulating
// on-disk corruption for TestOpen_CorruptedMagicFails.
func corruptMagic(path string) error {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.WriteAt([]byte{0x00}, 0)

	return err
}
