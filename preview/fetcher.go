package preview

import (
	"context"

	"github.com/gabriel-vasile/mimetype"

	"github.com/dirsail/dirsail/cha"
	"github.com/dirsail/dirsail/scheduler"
	"github.com/dirsail/dirsail/task"
)

// FetchRule lets a plugin claim MIME computation for files it recognizes
// (e.g. an archive-aware fetcher that peeks at a container's central
// directory instead of sniffing raw bytes) ahead of the default sniffer.
type FetchRule struct {
	Name   string
	Match  func(f cha.File) bool
	Plugin func(ctx context.Context, files []cha.File) (map[string]string, error)
}

// Fetcher computes MIME types for the files on the active page at NORMAL
// priority, coalescing every file that matches the same rule into one
// batched plugin invocation rather than one task per file (§4.5).
type Fetcher struct {
	Sched *scheduler.Scheduler
	Rules []FetchRule
}

// NewFetcher constructs a Fetcher bound to sched with the given custom
// rules; files matching none of them fall back to mimetype.DetectFile.
func NewFetcher(sched *scheduler.Scheduler, rules []FetchRule) *Fetcher {
	return &Fetcher{Sched: sched, Rules: rules}
}

// Fetch groups files by the first matching rule (or the default
// sniffer), submits one batched task per group, and calls publish for
// every urn whose mime was resolved.
func (ft *Fetcher) Fetch(files []cha.File, publish func(urn, mime string)) *task.Task {
	groups := map[string][]cha.File{}
	order := []string{}
	ruleByName := map[string]FetchRule{}

	for _, f := range files {
		name := ""
		for _, r := range ft.Rules {
			if r.Match(f) {
				name = r.Name
				ruleByName[name] = r
				break
			}
		}
		if _, ok := groups[name]; !ok {
			order = append(order, name)
		}
		groups[name] = append(groups[name], f)
	}

	return ft.Sched.Submit(scheduler.WorkerPlugin, scheduler.Normal, task.KindFetch, func(ctx context.Context, out chan<- task.Out) {
		out <- task.NewTotal(int64(len(order)))
		for _, name := range order {
			group := groups[name]

			var mimes map[string]string
			var err error
			if r, ok := ruleByName[name]; ok {
				mimes, err = r.Plugin(ctx, group)
			} else {
				mimes, err = sniffBatch(group)
			}
			if err != nil {
				out <- task.Adv(0, 1, 0)
				out <- task.Log("fetch: " + err.Error())
				continue
			}
			if publish != nil {
				for urn, mime := range mimes {
					publish(urn, mime)
				}
			}
			out <- task.Adv(1, 0, 0)
		}
		out <- task.Succ()
	})
}

// sniffBatch is the default fetcher rule: content-sniff every file's
// local path via mimetype.DetectFile, ignoring individual failures (a
// file that vanished mid-batch just gets no mime).
func sniffBatch(files []cha.File) (map[string]string, error) {
	out := make(map[string]string, len(files))
	for _, f := range files {
		m, err := mimetype.DetectFile(f.Url.Path())
		if err != nil {
			continue
		}
		out[f.Urn()] = m.String()
	}
	return out, nil
}
