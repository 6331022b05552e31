package kernel

// Replay reconstructs state by re-running Step sequentially from genesis
// over the recorded input history. There is no replay mode: the same code
// path serves initial execution and replay, so identical history always
// yields a byte-identical output sequence, chain head, and snapshot hash.
//
// Mid-history snapshots exist only for audit comparison of state hashes;
// resuming from one is deliberately unsupported.
func Replay(k *Kernel, history [][]Input) (*State, []Output, error) {
	st := k.Genesis()
	var all []Output
	for _, batch := range history {
		next, outputs, err := k.Step(st, batch)
		if err != nil {
			return nil, nil, err
		}
		st = next
		all = append(all, outputs...)
	}
	return st, all, nil
}
