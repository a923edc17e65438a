// Copyright 2025, the tscat contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package convert exports Qt Linguist catalogs to other translation formats and
reads some of them back.

  - gettext: [WritePO] and [NewPoTranslator], backed by github.com/leonelquinteros/gotext.
  - go-i18n: [Messages], [WriteTOML] and [NewBundleTranslator], backed by
    github.com/nicksnyder/go-i18n/v2.
  - YAML: [WriteYAML], a flat dump for review tools.

Message keys keep the catalog's context and disambiguation, so the
translators returned here resolve a finished key to the same text as the
catalog it was exported from.
*/
package convert
