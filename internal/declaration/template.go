package declaration

// Template is written by `webfeatures init`. It includes commented examples
// for both forms of the files key.
const Template = `# Web features declaration
# Location: WEB_FEATURES.yml (any directory of the test repository)
#
# A declaration replaces whatever features the parent directories passed
# down. Only features with files: "**" continue on to subdirectories.

features:
  # Applies to every test in this directory and all subdirectories
  # that do not have their own WEB_FEATURES.yml.
  - name: example-feature
    files: "**"

  # Applies only to tests in this directory whose file names match.
  # Patterns starting with "!" exclude matches.
  # - name: another-feature
  #   files:
  #     - "another-*"
  #     - "!another-legacy.html"
`
