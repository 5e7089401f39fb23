// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package rulegen

import (
	"fmt"
	"strings"

	"github.com/AleutianAI/kwrules/services/rulegen/artifact"
	"github.com/AleutianAI/kwrules/services/rulegen/keyword"
)

// thresholdScore is the placeholder weight every threshold meta rule
// gets; operators tune real weights in their own configuration.
const thresholdScore = "0.01"

// namespace returns the rule name prefix for one source file.
func (g *Generator) namespace(path string) string {
	return g.opts.ID + "_" + artifact.Sanitize(path)
}

// componentName returns the internal component rule name for a word.
// The double underscore marks the rule as not directly scoreable.
func componentName(ns, word string) string {
	return "__" + ns + "_" + strings.ToUpper(word)
}

// section starts a commented section in a buffer, blank-line separated
// from anything already buffered.
func section(b *Buffer, header string) {
	if b.Len() > 0 {
		b.Add("")
	}
	b.Add("# " + header)
}

// emitFile writes one file's component, scored-word, and group
// threshold rules. Meta rules land in the rules buffer; describe and
// score directives land in the scores buffer, which is the same buffer
// when scores are joined.
func (g *Generator) emitFile(f *FileRuleSet, rules, scores *Buffer) {
	words := g.store.ComponentWords(f)
	if len(words) == 0 {
		return
	}

	ns := g.namespace(f.Source)
	section(rules, fmt.Sprintf("%s rules generated from %s", g.opts.ID, f.Source))
	if rules != scores {
		section(scores, fmt.Sprintf("%s scores generated from %s", g.opts.ID, f.Source))
	}

	// Component rules: body match, subject match, and the disjunction
	// meta every other rule references. One block per distinct word no
	// matter how many groups list it.
	for _, w := range words {
		name := componentName(ns, w)
		rules.Add(
			fmt.Sprintf(`body %s_BODY /\b%s\b/i`, name, w),
			fmt.Sprintf(`header %s_SUBJ Subject =~ /\b%s\b/i`, name, w),
			fmt.Sprintf("meta %s (%s_BODY || %s_SUBJ)", name, name, name),
		)
	}

	// Scored words get a public meta equal to their component, scored
	// and described on their own.
	for _, w := range f.ScoredWords() {
		public := ns + "_" + strings.ToUpper(w)
		rules.Add(fmt.Sprintf("meta %s (%s)", public, componentName(ns, w)))

		desc := f.Comment(w)
		if desc == "" {
			desc = fmt.Sprintf("Keyword %s found", w)
		}
		scores.Add(
			fmt.Sprintf("describe %s %s", public, desc),
			fmt.Sprintf("score %s %s", public, keyword.FormatScore(f.Score(w))),
		)
	}

	// Group thresholds: one meta per achievable match count. The LOCAL
	// group names its rules without a group segment.
	for _, group := range f.GroupNames() {
		members := f.GroupWords(group)
		refs := make([]string, len(members))
		for i, w := range members {
			refs[i] = componentName(ns, w)
		}

		base := ns
		if group != keyword.DefaultGroup {
			base = ns + "_" + group
		}
		sum := strings.Join(refs, " + ")

		for k := 1; k <= len(members); k++ {
			name := fmt.Sprintf("%s_%d", base, k)
			rules.Add(fmt.Sprintf("meta %s ((%s) >= %d)", name, sum, k))

			desc := fmt.Sprintf("At least %d keywords from %s", k, f.Source)
			if group != keyword.DefaultGroup {
				desc = fmt.Sprintf("At least %d %s keywords from %s", k, group, f.Source)
			}
			scores.Add(
				fmt.Sprintf("describe %s %s", name, desc),
				fmt.Sprintf("score %s %s", name, thresholdScore),
			)
		}
	}
}

// emitGlobal writes the cross-file threshold rules. Every word is
// referenced through the namespace of its origin file, which is why
// the GLOBAL artifacts must load after every per-file artifact.
func (g *Generator) emitGlobal(rules, scores *Buffer) {
	words := g.store.GlobalWords()
	if len(words) == 0 {
		return
	}

	refs := make([]string, len(words))
	for i, w := range words {
		origin, _ := g.store.GlobalOrigin(w)
		refs[i] = componentName(g.namespace(origin), w)
	}

	section(rules, fmt.Sprintf("%s cross-file GLOBAL rules", g.opts.ID))
	if rules != scores {
		section(scores, fmt.Sprintf("%s cross-file GLOBAL scores", g.opts.ID))
	}

	base := g.opts.ID + "_" + keyword.GlobalGroup
	sum := strings.Join(refs, " + ")
	for k := 1; k <= len(words); k++ {
		name := fmt.Sprintf("%s_%d", base, k)
		rules.Add(fmt.Sprintf("meta %s ((%s) >= %d)", name, sum, k))
		scores.Add(
			fmt.Sprintf("describe %s At least %d GLOBAL keywords", name, k),
			fmt.Sprintf("score %s %s", name, thresholdScore),
		)
	}
}
